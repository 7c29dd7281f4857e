package models

import (
	"encoding/json"
	"path"
)

// Классы артефактов в объектном хранилище
const (
	ClassPrintData     = "print-data"
	ClassRecipe        = "recipe"
	ClassDeviceSetting = "device-setting"
	ClassDeviceLog     = "device-log"
	ClassPrintHistory  = "print-history"
	ClassCamBundle     = "cam-bundle"
	ClassTimelapse     = "timelapse"
	ClassTransfer      = "file-transfer"
)

// Имена объектов-снимков каталогов
const (
	PrintDataObject     = "print-data.json"
	RecipeObject        = "recipe.json"
	DeviceSettingObject = "device-setting.json"
)

// ObjectKey строит ключ объекта: <type>/<number>/<class>/<name>
func ObjectKey(deviceType, deviceNumber, class, name string) string {
	return path.Join(deviceType, deviceNumber, class, name)
}

// PrintDataEntry описывает одну папку печатных данных
type PrintDataEntry struct {
	Preview string `json:"preview"`
	Size    int64  `json:"size"`
	Digest  string `json:"digest"`
}

// PrintDataCatalog - имя папки -> описание
type PrintDataCatalog map[string]PrintDataEntry

// RecipeFile описывает файл рецепта X1/DM400
type RecipeFile struct {
	Content string `json:"content"`
	Size    int64  `json:"size"`
	Digest  string `json:"digest"`
}

// RecipeCatalog - снимок рецептов.
// Для X1/DM400 заполнен Files, для смоляных устройств - ResinList.
type RecipeCatalog struct {
	Files     map[string]RecipeFile
	ResinList []string
}

// Empty сообщает, что снимок ничего не содержит
func (r RecipeCatalog) Empty() bool {
	return len(r.Files) == 0 && len(r.ResinList) == 0
}

// MarshalJSON пишет либо {"recipe-list": [...]}, либо карту файлов без обертки
func (r RecipeCatalog) MarshalJSON() ([]byte, error) {
	if r.ResinList != nil {
		return json.Marshal(map[string][]string{"recipe-list": r.ResinList})
	}
	files := r.Files
	if files == nil {
		files = map[string]RecipeFile{}
	}
	return json.Marshal(files)
}

// SettingCatalog - имя xml-файла -> разобранное содержимое
type SettingCatalog map[string]map[string]any
