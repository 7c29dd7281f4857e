package main

import (
	"github.com/Carima-SSY/AWS-Client/internal/app"

	"github.com/spf13/pflag"
)

func main() {
	envPath := pflag.String("env", "", "путь к .env файлу (по умолчанию ./.env)")
	pflag.Parse()

	// Создаем и запускаем новый экземпляр приложения fx
	app.New(*envPath).Run()
}
