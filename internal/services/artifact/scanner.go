package artifact

import (
	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/interfaces"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
)

// Scanner пересчитывает снимки локальных папок артефактов
type Scanner struct {
	deviceType string
	paths      config.PathsConfig
	codec      interfaces.Codec
	logger     *logging.Logger
}

func NewScanner(cfg *config.AppConfig, codec interfaces.Codec, logger *logging.Logger) *Scanner {
	return &Scanner{
		deviceType: cfg.Device.Type,
		paths:      cfg.Paths,
		codec:      codec,
		logger:     logger.WithPrefix("SCANNER"),
	}
}
