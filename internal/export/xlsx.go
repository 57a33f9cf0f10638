package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tasukuchiba/duo_chat_app/internal/models"
)

// ContentType はXLSXのMIMEタイプ
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{"Remetente", "Texto", "Resposta do bot", "Criado em"}

// FileName はダウンロード時のファイル名を返す
func FileName(user string, now time.Time) string {
	return fmt.Sprintf("conversa_%s_%s.xlsx", user, now.UTC().Format("20060102_150405"))
}

// WriteXLSX は閲覧可能な履歴を1シートのワークブックとして書き出す
func WriteXLSX(w io.Writer, user string, msgs []models.Message) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := models.DisplayName(user)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, msg := range msgs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			msg.UserSender,
			deref(msg.UserText),
			deref(msg.BotText),
			msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "B", "C", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	return f.Write(w)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
