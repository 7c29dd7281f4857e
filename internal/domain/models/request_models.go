package models

import "encoding/json"

// Входящие команды
const (
	RequestFileTransfer   = "file-transfer"
	RequestFileDeletion   = "file-deletion"
	RequestPrintStart     = "print-start"
	RequestPrintAbort     = "print-abort"
	RequestPrintPause     = "print-pause"
	RequestSelectData     = "select-data"
	RequestSelectRecipe   = "select-recipe"
	RequestChangeRecipe   = "change-recipe"
	RequestChangeSetting  = "change-setting"
	RequestChangePrinting = "change-printing"
)

// InboundMessage - команда из облака или локального API: {request, data}
type InboundMessage struct {
	Request string          `json:"request" binding:"required"`
	Data    json.RawMessage `json:"data"`
}

// PrintStartData - данные команды print-start
type PrintStartData struct {
	User   string   `json:"user"`
	Data   []string `json:"data"`
	Recipe string   `json:"recipe"`
}

// NamedData - данные команд select-*, file-deletion
type NamedData struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ContentData - данные команд change-recipe / change-setting / file-transfer.
// Для file-transfer Content содержит ключ объекта в хранилище.
type ContentData struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
}

// TransferPackage - объект, скачанный по presigned URL в file-transfer
type TransferPackage struct {
	Type    string `json:"type"` // data | recipe
	Name    string `json:"name"`
	Content string `json:"content"` // base64
}
