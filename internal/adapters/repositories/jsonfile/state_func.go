package jsonfile

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
)

const (
	deviceStatusFile  = "device-status.json"
	printStatusFile   = "print-status.json"
	sensorStatusFile  = "sensor-status.json"
	deviceAlarmFile   = "device-alarm.json"
	deviceConfigFile  = "device-config.json"
	deviceRequestFile = "device-request.json"
)

// StateStore хранит каждую сущность в отдельном файле папки состояния.
// Все операции идут под одним мьютексом.
type StateStore struct {
	mu  sync.Mutex
	dir string
}

func NewStateStore(dir string) *StateStore {
	return &StateStore{dir: dir}
}

var _ interfaces.StateStore = (*StateStore)(nil)

func (s *StateStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Create записывает значения по умолчанию для всех сущностей
func (s *StateStore) Create() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := []struct {
		file  string
		value any
	}{
		{printStatusFile, entities.DefaultPrintStatus()},
		{deviceStatusFile, entities.DefaultDeviceStatus()},
		{sensorStatusFile, entities.DefaultSensorStatus()},
		{deviceAlarmFile, entities.DefaultDeviceAlarm()},
		{deviceConfigFile, entities.DefaultDeviceConfig()},
		{deviceRequestFile, entities.RequestList{}},
	}
	for _, d := range defaults {
		if err := writeRecord(s.path(d.file), d.value); err != nil {
			return err
		}
	}
	return nil
}

// Destroy удаляет все записи состояния
func (s *StateStore) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, file := range []string{printStatusFile, deviceStatusFile, sensorStatusFile, deviceAlarmFile, deviceConfigFile, deviceRequestFile} {
		errs = append(errs, removeRecord(s.path(file)))
	}
	return errors.Join(errs...)
}

func get[T any](s *StateStore, file string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readRecord[T](s.path(file))
}

func set(s *StateStore, file string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeRecord(s.path(file), v)
}

func (s *StateStore) GetDeviceStatus() (entities.DeviceStatus, error) {
	return get[entities.DeviceStatus](s, deviceStatusFile)
}

func (s *StateStore) SetDeviceStatus(v entities.DeviceStatus) error {
	return set(s, deviceStatusFile, v)
}

func (s *StateStore) GetPrintStatus() (entities.PrintStatus, error) {
	return get[entities.PrintStatus](s, printStatusFile)
}

func (s *StateStore) SetPrintStatus(v entities.PrintStatus) error {
	return set(s, printStatusFile, v)
}

func (s *StateStore) GetSensorStatus() (entities.SensorStatus, error) {
	return get[entities.SensorStatus](s, sensorStatusFile)
}

func (s *StateStore) SetSensorStatus(v entities.SensorStatus) error {
	return set(s, sensorStatusFile, v)
}

func (s *StateStore) GetDeviceAlarm() (entities.DeviceAlarm, error) {
	return get[entities.DeviceAlarm](s, deviceAlarmFile)
}

func (s *StateStore) SetDeviceAlarm(v entities.DeviceAlarm) error {
	return set(s, deviceAlarmFile, v)
}

func (s *StateStore) GetDeviceConfig() (entities.DeviceConfig, error) {
	return get[entities.DeviceConfig](s, deviceConfigFile)
}

func (s *StateStore) SetDeviceConfig(v entities.DeviceConfig) error {
	return set(s, deviceConfigFile, v)
}

func (s *StateStore) GetRequests() (entities.RequestList, error) {
	return get[entities.RequestList](s, deviceRequestFile)
}

func (s *StateStore) AppendRequest(req entities.DeviceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := readRecord[entities.RequestList](s.path(deviceRequestFile))
	if err != nil {
		return err
	}
	list.Requests = append(list.Requests, req)
	return writeRecord(s.path(deviceRequestFile), list)
}

func (s *StateStore) ClearAlarm(published entities.DeviceAlarm) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := readRecord[entities.DeviceAlarm](s.path(deviceAlarmFile))
	if err != nil {
		return false, err
	}
	if current != published {
		// за время публикации устройство записало новую тревогу
		return false, nil
	}
	if err := writeRecord(s.path(deviceAlarmFile), entities.DefaultDeviceAlarm()); err != nil {
		return false, err
	}
	return true, nil
}
