package web

import (
	"errors"

	"cashflow/pkg/cashflow"

	"github.com/go-playground/validator/v10"
)

// cashFlowForm is posted by the add and edit dialogs. ID is only read on edit.
type cashFlowForm struct {
	ID          string `form:"id"`
	Type        string `form:"type" binding:"required"`
	Source      string `form:"source" binding:"required"`
	Label       string `form:"label" binding:"required"`
	Amount      int64  `form:"amount" binding:"gt=0"`
	Description string `form:"description"`
}

type deleteForm struct {
	ID           string `form:"id"`
	ConfirmLabel string `form:"confirmLabel"`
}

var fieldMessages = map[string]string{
	"Type":   "Tipe tidak boleh kosong",
	"Source": "Sumber tidak boleh kosong",
	"Label":  "Label tidak boleh kosong",
	"Amount": "Jumlah harus lebih dari 0",
}

// fieldError turns a binding error into the message shown to the user.
// Validator errors come back in field declaration order, so the first one wins.
func fieldError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := fieldMessages[verrs[0].Field()]; ok {
			return msg
		}
		return verrs[0].Error()
	}
	// amount is the only field that can fail to parse
	return fieldMessages["Amount"]
}

func (f cashFlowForm) input() cashflow.Input {
	return cashflow.Input{
		Type:        f.Type,
		Source:      f.Source,
		Label:       f.Label,
		Amount:      f.Amount,
		Description: f.Description,
	}
}
