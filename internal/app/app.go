package app

import (
	"context"
	"net/http"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/adapters/handlers"
	"github.com/Carima-SSY/AWS-Client/internal/adapters/repositories/jsonfile"
	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	"github.com/Carima-SSY/AWS-Client/internal/services/artifact"
	"github.com/Carima-SSY/AWS-Client/internal/services/camera"
	"github.com/Carima-SSY/AWS-Client/internal/services/codec"
	"github.com/Carima-SSY/AWS-Client/internal/services/command"
	"github.com/Carima-SSY/AWS-Client/internal/services/devicelog"
	"github.com/Carima-SSY/AWS-Client/internal/services/history"
	"github.com/Carima-SSY/AWS-Client/internal/services/kafka"
	"github.com/Carima-SSY/AWS-Client/internal/services/mqtt"
	"github.com/Carima-SSY/AWS-Client/internal/services/storage"
	"github.com/Carima-SSY/AWS-Client/internal/services/sync_service"
	"github.com/Carima-SSY/AWS-Client/internal/services/telemetry"
	"github.com/Carima-SSY/AWS-Client/internal/usecases"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App. envPath - путь к .env, пустой означает ./.env
func New(envPath string) *fx.App {
	return fx.New(
		ConfigModule(envPath),
		LoggingModule,
		RepositoryModule,
		ProducerModule,
		TransportModule,
		StorageModule,
		ServiceModule,
		LoopModule,
		UsecaseModule,
		HttpServerModule,
	)
}

// --- Модули FX ---

func ConfigModule(envPath string) fx.Option {
	return fx.Module("config_module",
		fx.Provide(func() (*config.AppConfig, error) {
			return config.LoadConfiguration(envPath)
		}),
	)
}

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "HubAgent")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
	fx.Invoke(func(lc fx.Lifecycle, logger *logging.Logger) {
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return logger.Close() }})
	}),
)

func ProvideStateStore(repo *jsonfile.Repository) interfaces.StateStore     { return repo.State }
func ProvideHistory(repo *jsonfile.Repository) interfaces.HistoryRepository { return repo.History }
func ProvideMailboxes(repo *jsonfile.Repository) interfaces.Mailboxes       { return repo.Mailboxes }
func ProvideTransport(t *mqtt.Transport) interfaces.MessageTransport        { return t }
func ProvideTelemetry(p *telemetry.Publisher) interfaces.Telemetry          { return p }
func ProvideObjectStore(c *storage.Client) interfaces.ObjectStore           { return c }
func ProvideCodec(c *codec.XMLCodec) interfaces.Codec                       { return c }
func ProvideCommandHandler(h *command.Handler) interfaces.CommandHandler    { return h }
func ProvideEncoder(e *camera.FFmpegEncoder) interfaces.TimelapseEncoder    { return e }
func ProvideLoopMonitor(s *sync_service.Supervisor) interfaces.LoopMonitor  { return s }
func ProvideFrameStore(cfg *config.AppConfig) *camera.FrameStore            { return camera.NewFrameStore(cfg.Paths.CameraFolder) }

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(
		jsonfile.NewRepository,
		ProvideStateStore,
		ProvideHistory,
		ProvideMailboxes,
	),
	fx.Invoke(InvokeStateStore),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
	fx.Invoke(InvokeProducer),
)

var TransportModule = fx.Module("transport_module",
	fx.Provide(
		mqtt.NewTransport,
		ProvideTransport,
		telemetry.NewPublisher,
		ProvideTelemetry,
	),
)

var StorageModule = fx.Module("storage_module",
	fx.Provide(
		storage.NewObjectStore,
		ProvideObjectStore,
	),
	fx.Invoke(InvokeObjectStore),
)

var ServiceModule = fx.Module("service_module",
	fx.Provide(
		codec.NewXMLCodec,
		ProvideCodec,
		artifact.NewScanner,
		artifact.NewFileManager,
		command.NewHandler,
		ProvideCommandHandler,
		devicelog.NewWriter,
		camera.NewCamera,
		ProvideFrameStore,
		camera.NewFFmpegEncoder,
		ProvideEncoder,
		camera.NewConsolidator,
		ProvideMachine,
	),
	fx.Invoke(InvokeTransport, InvokeCamera),
)

var LoopModule = fx.Module("loop_module",
	fx.Provide(
		ProvideStatusLoop,
		ProvideArtifactLoop,
		ProvideCameraLoop,
		ProvideSupervisor,
		ProvideLoopMonitor,
	),
	fx.Invoke(InvokeSupervisor),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

func ProvideMachine(cfg *config.AppConfig, store interfaces.StateStore, repo interfaces.HistoryRepository, mailboxes interfaces.Mailboxes, logger *logging.Logger) *history.Machine {
	return history.NewMachine(history.Config{
		DeviceType:         cfg.Device.Type,
		DeviceNumber:       cfg.Device.Number,
		ArchiveInterrupted: cfg.Loops.ArchiveInterrupted,
	}, store, repo, mailboxes.PrintHistory, logger)
}

func ProvideStatusLoop(cfg *config.AppConfig, store interfaces.StateStore, tel interfaces.Telemetry, machine *history.Machine, writer *devicelog.Writer, logger *logging.Logger) *sync_service.StatusLoop {
	return sync_service.NewStatusLoop(cfg, store, tel, machine, writer, logger)
}

func ProvideArtifactLoop(cfg *config.AppConfig, scanner *artifact.Scanner, objects interfaces.ObjectStore, mailboxes interfaces.Mailboxes, repo interfaces.HistoryRepository, consolidator *camera.Consolidator, logger *logging.Logger) *sync_service.ArtifactLoop {
	return sync_service.NewArtifactLoop(cfg, scanner, objects, mailboxes, repo, consolidator, logger)
}

func ProvideCameraLoop(cfg *config.AppConfig, store interfaces.StateStore, repo interfaces.HistoryRepository, cam interfaces.Camera, frames *camera.FrameStore, tel interfaces.Telemetry, logger *logging.Logger) *sync_service.CameraLoop {
	return sync_service.NewCameraLoop(cfg, store, repo, cam, frames, tel, logger)
}

func ProvideSupervisor(logger *logging.Logger, status *sync_service.StatusLoop, artifacts *sync_service.ArtifactLoop, cam *sync_service.CameraLoop) *sync_service.Supervisor {
	return sync_service.NewSupervisor(logger, status, artifacts, cam)
}

// InvokeStateStore создает записи состояния при старте и удаляет при остановке.
// Недооформленные журналы прошлого запуска ставятся в очередь выгрузки.
func InvokeStateStore(lc fx.Lifecycle, store interfaces.StateStore, writer *devicelog.Writer, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Create(); err != nil {
				logger.Error("FATAL: Failed to create state store", "error", err)
				return err
			}
			logger.Info("State store created")
			if _, err := writer.Recover(); err != nil {
				logger.Warn("Failed to recover device logs", "error", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Destroying state store...")
			return store.Destroy()
		},
	})
}

// InvokeProducer закрывает writer Kafka при остановке
func InvokeProducer(lc fx.Lifecycle, producer interfaces.KafkaService, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing Kafka producer...")
			return producer.Close()
		},
	})
}

// InvokeObjectStore проверяет хранилище при старте. Ошибка не фатальна:
// циклы повторят выгрузку сами.
func InvokeObjectStore(lc fx.Lifecycle, client *storage.Client, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Prepare(ctx); err != nil {
				logger.Warn("Object storage is not ready", "error", err)
			}
			return nil
		},
	})
}

// InvokeTransport подключается к брокеру и подписывает обработчик команд
func InvokeTransport(lc fx.Lifecycle, transport interfaces.MessageTransport, commands *command.Handler, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			transport.OnMessage(commands.HandleMessage)
			if err := transport.Connect(ctx); err != nil {
				logger.Error("FATAL: Failed to connect to MQTT broker", "error", err)
				return err
			}
			logger.Info("Connected to MQTT broker")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Disconnecting from MQTT broker...")
			transport.Disconnect()
			return nil
		},
	})
}

// InvokeCamera освобождает камеру при остановке. Хук регистрируется раньше
// циклов, поэтому fx вызывает его после остановки супервизора.
func InvokeCamera(lc fx.Lifecycle, cam interfaces.Camera, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing camera...")
			return cam.Close()
		},
	})
}

// InvokeSupervisor запускает циклы синхронизации. Контекст старта fx
// ограничен по времени, поэтому циклы получают собственный.
func InvokeSupervisor(lc fx.Lifecycle, supervisor *sync_service.Supervisor, artifacts *sync_service.ArtifactLoop, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			supervisor.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping sync loops...")
			supervisor.Stop()
			artifacts.Wait()
			return nil
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер локального API.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	if !cfg.HTTPEnabled {
		logger.Info("HTTP Server is disabled")
		return
	}

	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
