package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DeviceState - статус устройства, который пишет управляющий процесс принтера
type DeviceState string

const (
	StateOffline        DeviceState = "OFFLINE"
	StateIdle           DeviceState = "IDLE"
	StateReady          DeviceState = "READY"
	StatePrinting       DeviceState = "PRINTING"
	StatePrintingPause  DeviceState = "PRINTING_PAUSE"
	StatePrintingFinish DeviceState = "PRINTING_FINISH"
	StatePrintingAbort  DeviceState = "PRINTING_ABORT"
	StateError          DeviceState = "ERROR"
)

// Terminal сообщает, что задание завершилось штатно (finish или abort)
func (s DeviceState) Terminal() bool {
	return s == StatePrintingFinish || s == StatePrintingAbort
}

// InJob - устройство печатает или стоит на паузе внутри задания
func (s DeviceState) InJob() bool {
	return s == StatePrinting || s == StatePrintingPause
}

// Flag - целочисленный флаг 0/1. Устройство иногда пишет его как bool.
type Flag int

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*f = 1
		return nil
	case "false", "null":
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid flag value %s", b)
	}
	if v != 0 {
		*f = 1
	} else {
		*f = 0
	}
	return nil
}

type Selected struct {
	Data   []string `json:"data"`
	Recipe string   `json:"recipe"`
}

type DeviceStatus struct {
	AllowRemoteControl Flag        `json:"allow-remote-control"`
	Status             DeviceState `json:"status"`
	Selected           Selected    `json:"selected"`
}

func (d DeviceStatus) RemoteControlAllowed() bool {
	return d.AllowRemoteControl != 0
}

type PrintStatus struct {
	User          string   `json:"user"`
	DataIndex     int      `json:"data-index"`
	Data          []string `json:"data"`
	Recipe        string   `json:"recipe"`
	CurrentLayer  int      `json:"current-layer"`
	TotalLayer    int      `json:"total-layer"`
	RemainingTime int      `json:"remaining-time"`
	Progress      float64  `json:"progress"`
}

type ControlBoardSensor struct {
	Connected     Flag    `json:"connected"`
	BuildPlatform float64 `json:"build-platform"`
	LevelTank     float64 `json:"level-tank"`
	Blade         float64 `json:"blade"`
	PrintBlade    float64 `json:"print-blade"`
	CollectBlade  float64 `json:"collect-blade"`
	ResinPump     float64 `json:"resin-pump"`
	PneumaticPump float64 `json:"pneumatic-pump"`
	Autoleveling  Flag    `json:"autoleveling"`
}

type TemperatureSensor struct {
	Connected Flag    `json:"connected"`
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
	Heating   Flag    `json:"heating"`
}

// GaugeSensor - датчик с текущим и целевым значением (уровень воды, давление)
type GaugeSensor struct {
	Connected Flag    `json:"connected"`
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
}

type LEDTemperature struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
	One   float64 `json:"one"`
}

type EngineSensor struct {
	Connected Flag           `json:"connected"`
	LEDOn     Flag           `json:"ledon"`
	LEDTemp   LEDTemperature `json:"ledtemp"`
}

type SensorStatus struct {
	ControlBoard ControlBoardSensor `json:"control_board"`
	Temperature  TemperatureSensor  `json:"temperature"`
	WaterLevel   GaugeSensor        `json:"waterlevel"`
	Pressure     GaugeSensor        `json:"pressure"`
	Engine       EngineSensor       `json:"engine"`
}

// NoAlarmDate - дата в "пустой" тревоге
const NoAlarmDate = "0000:00:00:00:00:00"

type DeviceAlarm struct {
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	CreatedDate string `json:"created_date"`
}

// Active возвращает true, если тревога отличается от сентинела
func (a DeviceAlarm) Active() bool {
	return a.Subject != "" && a.Subject != Unset
}

type ControlBoardConfig struct {
	Type            string `json:"type"`
	FirmwareVersion string `json:"firmware-version"`
}

type DeviceConfig struct {
	AppVersion   string             `json:"app-version"`
	ControlBoard ControlBoardConfig `json:"control-board"`
	Temperature  string             `json:"temperature"`
	Pressure     string             `json:"pressure"`
	WaterLevel   string             `json:"waterlevel"`
	Engine       string             `json:"engine"`
}

// DeviceRequest - команда для управляющего процесса: {type, ...payload}
type DeviceRequest map[string]any

// Type возвращает поле "type" команды
func (r DeviceRequest) Type() string {
	v, _ := r["type"].(string)
	return v
}

type RequestList struct {
	Requests []DeviceRequest `json:"request-list"`
}

// MarshalJSON гарантирует "request-list": [] вместо null
func (l RequestList) MarshalJSON() ([]byte, error) {
	requests := l.Requests
	if requests == nil {
		requests = []DeviceRequest{}
	}
	return json.Marshal(struct {
		Requests []DeviceRequest `json:"request-list"`
	}{requests})
}

func DefaultDeviceStatus() DeviceStatus {
	return DeviceStatus{
		AllowRemoteControl: 0,
		Status:             StateOffline,
		Selected:           Selected{Data: []string{}, Recipe: Unset},
	}
}

func DefaultPrintStatus() PrintStatus {
	return PrintStatus{
		User:      Unset,
		DataIndex: -1,
		Data:      []string{},
		Recipe:    Unset,
	}
}

func DefaultSensorStatus() SensorStatus {
	return SensorStatus{
		ControlBoard: ControlBoardSensor{
			BuildPlatform: -1,
			LevelTank:     -1,
			Blade:         -1,
			PrintBlade:    -1,
			CollectBlade:  -1,
			ResinPump:     -1,
			PneumaticPump: -1,
		},
		Temperature: TemperatureSensor{Current: -1, Target: -1},
		WaterLevel:  GaugeSensor{Current: -1, Target: -1},
		Pressure:    GaugeSensor{Current: -1, Target: -1},
		Engine:      EngineSensor{LEDTemp: LEDTemperature{Left: -1, Right: -1, One: -1}},
	}
}

func DefaultDeviceAlarm() DeviceAlarm {
	return DeviceAlarm{Subject: Unset, Content: Unset, CreatedDate: NoAlarmDate}
}

func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		AppVersion:   Unset,
		ControlBoard: ControlBoardConfig{Type: Unset, FirmwareVersion: Unset},
		Temperature:  Unset,
		Pressure:     Unset,
		WaterLevel:   Unset,
		Engine:       Unset,
	}
}
