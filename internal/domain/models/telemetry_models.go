package models

import (
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
)

// Действия телеметрии
const (
	ActionAllStatus    = "all-status"
	ActionDeviceAlarm  = "device-alarm"
	ActionDeviceConfig = "device-config"
	ActionPrintHistory = "print-history"
	ActionCamImage     = "cam-image"
)

// Получатели телеметрии
const (
	TargetBrowser = "browser"
	TargetStorage = "storage"
)

// DeviceRef идентифицирует устройство в конверте телеметрии
type DeviceRef struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// Envelope - исходящее сообщение телеметрии
type Envelope struct {
	Target []string  `json:"target"`
	Action string    `json:"action"`
	Device DeviceRef `json:"device"`
	Data   any       `json:"data"`
}

// AllStatus - снимок состояния, публикуемый раз в тик
type AllStatus struct {
	Device entities.DeviceStatus `json:"device"`
	Sensor entities.SensorStatus `json:"sensor"`
	Print  entities.PrintStatus  `json:"print"`
}

// CamImage - последний кадр камеры (base64 JPEG) или null
type CamImage struct {
	Image *string `json:"image"`
}
