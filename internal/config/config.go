package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig содержит конфигурацию агента
type AppConfig struct {
	ServerPort  string
	HTTPEnabled bool
	GinMode     string
	Device      DeviceConfig
	Paths       PathsConfig
	MQTT        MQTTConfig
	Storage     StorageConfig
	Kafka       KafkaConfig
	Loops       LoopsConfig
	Camera      CameraConfig
	Logging     LoggerConfig
}

// DeviceConfig описывает обслуживаемое устройство
type DeviceConfig struct {
	Type   string
	Number string
}

// PathsConfig содержит локальную раскладку папок
type PathsConfig struct {
	StateDir      string
	DataFolder    string
	RecipeFolder  string
	SettingFolder string
	LogFolder     string
	HistoryFolder string
	CameraFolder  string
}

// MQTTConfig содержит параметры подключения к брокеру телеметрии
type MQTTConfig struct {
	Endpoint       string
	Port           int
	ClientID       string
	TopicPrefix    string
	CACert         string
	CertFile       string
	PrivateKey     string
	QoS            int
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// StorageConfig содержит параметры объектного хранилища
type StorageConfig struct {
	Backend        string // apigateway | minio
	APIGatewayURL  string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIORegion    string
	PresignExpiry  time.Duration
	HTTPTimeout    time.Duration
}

// KafkaConfig - необязательное зеркало телеметрии
type KafkaConfig struct {
	Broker string
	Topic  string
}

// LoopsConfig содержит периоды циклов синхронизации
type LoopsConfig struct {
	StatusInterval     time.Duration
	ArtifactInterval   time.Duration
	CameraInterval     time.Duration
	ArchiveEveryTicks  int
	LogRotateTicks     int
	ArchiveInterrupted bool
}

// CameraConfig содержит параметры захвата и таймлапса
type CameraConfig struct {
	Command          string
	PrintingInterval time.Duration
	PreviewInterval  time.Duration
	BundleFrames     int
	FFmpegPath       string
	TimelapseFPS     int
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных окружения.
// Пустой envPath означает ./.env; отсутствие файла не является ошибкой.
func LoadConfiguration(envPath string) (*AppConfig, error) {
	if envPath == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("не удалось загрузить %s: %w", envPath, err)
	}

	stateDir := getEnv("STATE_DIR", "./state")

	config := &AppConfig{
		ServerPort:  getEnv("APP_PORT", "8082"),
		HTTPEnabled: getEnvAsBool("HTTP_ENABLE", true),
		GinMode:     getEnv("GIN_MODE", "release"),
		Device: DeviceConfig{
			Type:   getEnv("DEVICE_TYPE", "DM400"),
			Number: getEnv("DEVICE_NUMBER", ""),
		},
		Paths: PathsConfig{
			StateDir:      stateDir,
			DataFolder:    getEnv("DATA_FOLDER", filepath.Join(stateDir, "datas")),
			RecipeFolder:  getEnv("RECIPE_FOLDER", filepath.Join(stateDir, "recipes")),
			SettingFolder: getEnv("SETTING_FOLDER", filepath.Join(stateDir, "settings")),
			LogFolder:     getEnv("LOG_FOLDER", filepath.Join(stateDir, "logs")),
			HistoryFolder: getEnv("HISTORY_FOLDER", filepath.Join(stateDir, "history")),
			CameraFolder:  getEnv("CAMERA_FOLDER", filepath.Join(stateDir, "camera")),
		},
		MQTT: MQTTConfig{
			Endpoint:       getEnv("MQTT_ENDPOINT", "localhost"),
			Port:           getEnvAsInt("MQTT_PORT", 8883),
			ClientID:       getEnv("MQTT_CLIENT_ID", ""),
			TopicPrefix:    getEnv("MQTT_TOPIC_PREFIX", "device"),
			CACert:         getEnv("MQTT_CA_CERT", ""),
			CertFile:       getEnv("MQTT_CERT_FILE", ""),
			PrivateKey:     getEnv("MQTT_PRIVATE_KEY", ""),
			QoS:            getEnvAsInt("MQTT_QOS", 1),
			ConnectTimeout: getEnvAsDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
			PublishTimeout: getEnvAsDuration("MQTT_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", "apigateway")),
			APIGatewayURL:  getEnv("APIG_ENDPOINT", ""),
			MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinIOBucket:    getEnv("MINIO_BUCKET", "device-artifacts"),
			MinIOUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			MinIORegion:    getEnv("MINIO_REGION", "us-east-1"),
			PresignExpiry:  getEnvAsDuration("STORAGE_PRESIGN_EXPIRY", 15*time.Minute),
			HTTPTimeout:    getEnvAsDuration("STORAGE_HTTP_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", ""),
			Topic:  getEnv("KAFKA_TOPIC", "device_telemetry"),
		},
		Loops: LoopsConfig{
			StatusInterval:     getEnvAsDuration("STATUS_INTERVAL", time.Second),
			ArtifactInterval:   getEnvAsDuration("ARTIFACT_INTERVAL", time.Second),
			CameraInterval:     getEnvAsDuration("CAMERA_INTERVAL", time.Second),
			ArchiveEveryTicks:  getEnvAsInt("ARCHIVE_EVERY_TICKS", 60),
			LogRotateTicks:     getEnvAsInt("LOG_ROTATE_TICKS", 3600),
			ArchiveInterrupted: getEnvAsBool("HISTORY_ARCHIVE_INTERRUPTED", false),
		},
		Camera: CameraConfig{
			Command:          getEnv("CAMERA_COMMAND", ""),
			PrintingInterval: getEnvAsDuration("CAMERA_PRINTING_INTERVAL", 5*time.Second),
			PreviewInterval:  getEnvAsDuration("CAMERA_PREVIEW_INTERVAL", 10*time.Second),
			BundleFrames:     getEnvAsInt("CAMERA_BUNDLE_FRAMES", 30),
			FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
			TimelapseFPS:     getEnvAsInt("TIMELAPSE_FPS", 10),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", ""),
			Level:      getEnv("LOGGER_LOG_LEVEL", "INFO"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate проверяет значения, без которых агент не может стартовать
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Device.Type) == "" {
		return fmt.Errorf("DEVICE_TYPE не задан")
	}
	if strings.TrimSpace(c.Device.Number) == "" {
		return fmt.Errorf("DEVICE_NUMBER не задан")
	}
	switch c.Storage.Backend {
	case "apigateway", "minio":
	default:
		return fmt.Errorf("неизвестный STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Loops.ArchiveEveryTicks <= 0 || c.Loops.LogRotateTicks <= 0 {
		return fmt.Errorf("ARCHIVE_EVERY_TICKS и LOG_ROTATE_TICKS должны быть > 0")
	}
	if c.Loops.StatusInterval <= 0 || c.Loops.ArtifactInterval <= 0 || c.Loops.CameraInterval <= 0 {
		return fmt.Errorf("интервалы циклов должны быть > 0")
	}
	return nil
}

// DeviceID возвращает "<type>-<number>", используется в именах файлов и ключах
func (c *AppConfig) DeviceID() string {
	return c.Device.Type + "-" + c.Device.Number
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return val
}

// getEnvAsDuration принимает "1s"/"500ms" или целое число секунд
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(value); err == nil {
		return time.Duration(sec) * time.Second
	}
	return defaultValue
}
