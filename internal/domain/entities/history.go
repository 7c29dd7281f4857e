package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const (
	// Unset - сентинел "значение не задано" во всех записях устройства
	Unset = "-"
	// ResultInterrupted - результат задания, прерванного без finish/abort
	ResultInterrupted = "INTERRUPTED"
)

// Timestamp - unix-секунды; ноль сериализуется как "-"
type Timestamp int64

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == 0 {
		return []byte(`"-"`), nil
	}
	return []byte(strconv.FormatInt(int64(t), 10)), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte(`"-"`)) || bytes.Equal(b, []byte("null")) {
		*t = 0
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Timestamp(v)
	return nil
}

type HistoryPrint struct {
	Data   []string `json:"data"`
	Recipe string   `json:"recipe"`
}

type HistoryTime struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

type HistoryDatabase struct {
	User   string       `json:"user"`
	Print  HistoryPrint `json:"print"`
	Time   HistoryTime  `json:"time"`
	Result string       `json:"result"`
}

// HistoryStorage хранит ключи объектов, связанных с заданием
type HistoryStorage struct {
	Data      []string `json:"data"`
	Recipe    string   `json:"recipe"`
	Slices    []string `json:"slices"`
	CamBundle string   `json:"cam-bundle"`
	Timelapse string   `json:"timelapse"`
}

// PrintHistory - запись об одном задании печати
type PrintHistory struct {
	Name     string          `json:"name"`
	Database HistoryDatabase `json:"database"`
	Storage  HistoryStorage  `json:"storage"`
}

// Finished сообщает, что у записи уже есть результат
func (h PrintHistory) Finished() bool {
	return h.Database.Result != "" && h.Database.Result != Unset
}

// FileName - имя архивного файла записи
func (h PrintHistory) FileName() string {
	return h.Name + ".json"
}

// UpdateList - почтовый ящик с именами файлов, ожидающих выгрузки
type UpdateList struct {
	Items []string `json:"updated-list"`
}

func (u UpdateList) MarshalJSON() ([]byte, error) {
	items := u.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(struct {
		Items []string `json:"updated-list"`
	}{items})
}
