package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/comptaflow/compta/internal/models"
)

var _ list.Item = uploadItem{}

// uploadItem wraps [models.UploadRecord] to implement [list.Item].
type uploadItem struct {
	record models.UploadRecord
}

func (i uploadItem) FilterValue() string { return i.record.Filename }
func (i uploadItem) Title() string       { return i.record.Filename }
func (i uploadItem) Description() string {
	desc := fmt.Sprintf("%d transactions", i.record.TransactionCount)
	if i.record.BankCode != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.record.BankCode)
	}
	if i.record.CreatedAt != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.record.CreatedAt)
	}
	return desc
}
