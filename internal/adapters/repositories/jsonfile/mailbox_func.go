package jsonfile

import (
	"errors"
	"sync"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"
)

// Mailbox - файл {"updated-list": [...]} под собственным мьютексом
type Mailbox struct {
	mu   sync.Mutex
	path string
}

func NewMailbox(path string) *Mailbox {
	return &Mailbox{path: path}
}

var _ interfaces.Mailbox = (*Mailbox)(nil)

func (m *Mailbox) load() (entities.UpdateList, error) {
	list, err := readRecord[entities.UpdateList](m.path)
	if errors.Is(err, apperrors.ErrRecordMissing) {
		return entities.UpdateList{}, nil
	}
	return list, err
}

func (m *Mailbox) Append(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load()
	if err != nil {
		return err
	}
	list.Items = append(list.Items, name)
	return writeRecord(m.path, list)
}

// Drain читает и очищает ящик в одной критической секции
func (m *Mailbox) Drain() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load()
	if err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		return []string{}, nil
	}
	if err := writeRecord(m.path, entities.UpdateList{}); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Requeue ставит элементы в начало ящика в исходном порядке
func (m *Mailbox) Requeue(names []string) error {
	if len(names) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list, err := m.load()
	if err != nil {
		return err
	}
	items := make([]string, 0, len(names)+len(list.Items))
	items = append(items, names...)
	items = append(items, list.Items...)
	return writeRecord(m.path, entities.UpdateList{Items: items})
}
