package codec

import (
	"bytes"
	"fmt"

	"github.com/clbanning/mxj/v2"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// XMLCodec переводит файлы рецептов и настроек в map и обратно
type XMLCodec struct {
	// Root используется, если у данных больше одного ключа верхнего уровня
	Root string
}

func NewXMLCodec() *XMLCodec {
	return &XMLCodec{Root: "settings"}
}

func (c *XMLCodec) Decode(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("пустой xml")
	}
	m, err := mxj.NewMapXml(raw)
	if err != nil {
		return nil, fmt.Errorf("разбор xml: %w", err)
	}
	return map[string]any(m), nil
}

func (c *XMLCodec) Encode(data map[string]any) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("нет данных для записи")
	}

	var (
		out []byte
		err error
	)
	if len(data) == 1 {
		out, err = mxj.Map(data).XmlIndent("", "  ")
	} else {
		out, err = mxj.Map(data).XmlIndent("", "  ", c.Root)
	}
	if err != nil {
		return nil, fmt.Errorf("сборка xml: %w", err)
	}
	return append([]byte(xmlHeader), out...), nil
}
