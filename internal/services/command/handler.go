package command

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	"github.com/Carima-SSY/AWS-Client/internal/services/artifact"
	apperrors "github.com/Carima-SSY/AWS-Client/pkg/errors"

	"github.com/google/uuid"
)

// handleTimeout ограничивает обработку одной команды (скачивание file-transfer)
const handleTimeout = 2 * time.Minute

// Handler переводит входящие команды в записи очереди запросов или
// прямые изменения локальных файлов.
type Handler struct {
	store   interfaces.StateStore
	files   *artifact.FileManager
	objects interfaces.ObjectStore
	logger  *logging.Logger
	now     func() time.Time
	newID   func() string
}

var _ interfaces.CommandHandler = (*Handler)(nil)

func NewHandler(store interfaces.StateStore, files *artifact.FileManager, objects interfaces.ObjectStore, logger *logging.Logger) *Handler {
	return &Handler{
		store:   store,
		files:   files,
		objects: objects,
		logger:  logger.WithPrefix("COMMAND"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// HandleMessage - обработчик сырых сообщений транспорта
func (h *Handler) HandleMessage(payload []byte) {
	var msg models.InboundMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Warn("Malformed inbound message dropped", "error", err, "bytes", len(payload))
		return
	}
	if msg.Request == "" {
		h.logger.Debug("Inbound message without request field ignored")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := h.Handle(ctx, msg); err != nil {
		h.logger.Error("Inbound request failed", "request", msg.Request, "error", err)
		return
	}
	h.logger.Info("Inbound request handled", "request", msg.Request)
}

func (h *Handler) Handle(ctx context.Context, msg models.InboundMessage) error {
	switch msg.Request {
	case models.RequestPrintStart:
		if err := h.requireRemoteControl(); err != nil {
			return err
		}
		var data models.PrintStartData
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		if data.Data == nil {
			data.Data = []string{}
		}
		return h.enqueue(entities.DeviceRequest{
			"type":   msg.Request,
			"user":   data.User,
			"data":   data.Data,
			"recipe": data.Recipe,
		})

	case models.RequestPrintAbort, models.RequestPrintPause:
		if err := h.requireRemoteControl(); err != nil {
			return err
		}
		return h.enqueue(entities.DeviceRequest{"type": msg.Request})

	case models.RequestChangePrinting:
		if err := h.requireRemoteControl(); err != nil {
			return err
		}
		var data map[string]any
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		req := entities.DeviceRequest{}
		for k, v := range data {
			req[k] = v
		}
		req["type"] = msg.Request
		return h.enqueue(req)

	case models.RequestSelectData, models.RequestSelectRecipe:
		var data map[string]any
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		name, ok := data["name"]
		if !ok || name == nil || name == "" {
			return fmt.Errorf("%s без name: %w", msg.Request, apperrors.ErrInvalidName)
		}
		return h.enqueue(entities.DeviceRequest{"type": msg.Request, "name": name})

	case models.RequestChangeRecipe, models.RequestChangeSetting:
		var data models.ContentData
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		var content map[string]any
		if err := json.Unmarshal(data.Content, &content); err != nil {
			return fmt.Errorf("%s: content должен быть объектом: %w", msg.Request, err)
		}
		kind := artifact.KindRecipe
		if msg.Request == models.RequestChangeSetting {
			kind = artifact.KindSetting
		}
		return h.files.WriteStructured(kind, data.Name, content)

	case models.RequestFileTransfer:
		return h.fileTransfer(ctx, msg.Data)

	case models.RequestFileDeletion:
		var data models.NamedData
		if err := decode(msg.Data, &data); err != nil {
			return err
		}
		return h.files.Delete(data.Type, data.Name)
	}

	return fmt.Errorf("%q: %w", msg.Request, apperrors.ErrUnknownRequest)
}

func (h *Handler) fileTransfer(ctx context.Context, raw json.RawMessage) error {
	var data models.ContentData
	if err := decode(raw, &data); err != nil {
		return err
	}
	var key string
	if err := json.Unmarshal(data.Content, &key); err != nil || strings.TrimSpace(key) == "" {
		return fmt.Errorf("file-transfer: content должен быть ключом объекта: %w", apperrors.ErrInvalidName)
	}

	var pkg models.TransferPackage
	if err := h.objects.GetJSON(ctx, key, &pkg); err != nil {
		return fmt.Errorf("скачивание %s: %w", key, err)
	}

	switch pkg.Type {
	case artifact.KindData:
		_, err := h.files.AddPrintData(pkg.Name, pkg.Content)
		return err
	case artifact.KindRecipe:
		_, err := h.files.AddRecipe(pkg.Name, pkg.Content)
		return err
	}
	return fmt.Errorf("тип пакета %q: %w", pkg.Type, apperrors.ErrUnknownRequest)
}

func (h *Handler) requireRemoteControl() error {
	status, err := h.store.GetDeviceStatus()
	if err != nil {
		return err
	}
	if !status.RemoteControlAllowed() {
		return apperrors.ErrRemoteControlDisabled
	}
	return nil
}

func (h *Handler) enqueue(req entities.DeviceRequest) error {
	req["id"] = h.newID()
	req["created"] = h.now().Unix()
	if err := h.store.AppendRequest(req); err != nil {
		return fmt.Errorf("постановка %s в очередь: %w", req.Type(), err)
	}
	return nil
}

func decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewAppError(apperrors.InvalidDataCode, apperrors.BadRequest, err, true)
	}
	return nil
}
