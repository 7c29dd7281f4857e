package artifact

import (
	"reflect"
	"sync"
)

// Detector хранит последний выгруженный снимок класса артефактов и
// сравнивает с ним новый снимок целиком.
type Detector[T any] struct {
	mu      sync.Mutex
	cached  T
	primed  bool
	isEmpty func(T) bool
}

// NewDetector создает детектор. Пока кэш пуст, пустой снимок изменением не считается.
func NewDetector[T any](isEmpty func(T) bool) *Detector[T] {
	if isEmpty == nil {
		isEmpty = func(T) bool { return false }
	}
	return &Detector[T]{isEmpty: isEmpty}
}

// Changed сообщает, отличается ли снимок от кэша, не меняя кэш
func (d *Detector[T]) Changed(snapshot T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.primed {
		return !d.isEmpty(snapshot)
	}
	return !reflect.DeepEqual(d.cached, snapshot)
}

// Commit запоминает снимок как выгруженный
func (d *Detector[T]) Commit(snapshot T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cached = snapshot
	d.primed = true
}

// Check - Changed и Commit за один вызов: true ровно один раз на изменение
func (d *Detector[T]) Check(snapshot T) bool {
	if !d.Changed(snapshot) {
		return false
	}
	d.Commit(snapshot)
	return true
}
