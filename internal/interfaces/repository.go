package interfaces

import (
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
)

// StateStore определяет контракт хранилища записей состояния устройства.
// Все методы потокобезопасны; запись заменяет запись целиком.
type StateStore interface {
	Create() error
	Destroy() error

	GetDeviceStatus() (entities.DeviceStatus, error)
	SetDeviceStatus(entities.DeviceStatus) error
	GetPrintStatus() (entities.PrintStatus, error)
	SetPrintStatus(entities.PrintStatus) error
	GetSensorStatus() (entities.SensorStatus, error)
	SetSensorStatus(entities.SensorStatus) error
	GetDeviceAlarm() (entities.DeviceAlarm, error)
	SetDeviceAlarm(entities.DeviceAlarm) error
	GetDeviceConfig() (entities.DeviceConfig, error)
	SetDeviceConfig(entities.DeviceConfig) error
	GetRequests() (entities.RequestList, error)

	// AppendRequest атомарно добавляет команду в очередь запросов.
	AppendRequest(entities.DeviceRequest) error
	// ClearAlarm сбрасывает тревогу в сентинел, только если сохраненная тревога
	// все еще равна опубликованной. Возвращает true, если сброс произошел.
	ClearAlarm(published entities.DeviceAlarm) (bool, error)
}

// HistoryRepository хранит текущую и архивные записи истории печати
type HistoryRepository interface {
	Current() (*entities.PrintHistory, error)
	SaveCurrent(entities.PrintHistory) error
	DeleteCurrent() error
	// Archive пишет запись под ее именем и возвращает имя файла
	Archive(entities.PrintHistory) (string, error)
	LoadArchived(fileName string) (entities.PrintHistory, error)
	Path(fileName string) string
}

// Mailbox - персистентная очередь имен файлов, ожидающих выгрузки
type Mailbox interface {
	Append(name string) error
	// Drain атомарно забирает все элементы и очищает ящик
	Drain() ([]string, error)
	// Requeue возвращает в ящик элементы, выгрузка которых не удалась
	Requeue(names []string) error
}

// Mailboxes объединяет почтовые ящики по классам артефактов
type Mailboxes struct {
	DeviceLog    Mailbox
	PrintHistory Mailbox
}
