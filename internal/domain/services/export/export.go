package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/pkg/metrics"
)

const xlsxSheet = "Transactions"

var columns = []string{
	"Transaction ID",
	"Date & Time",
	"Initiator",
	"Recipient",
	"Amount",
	"Type",
	"Status",
	"Fraud Probability",
	"Severity",
	"Location",
	"Description",
}

func rowValues(tx entities.DisplayTransaction) []string {
	probability := ""
	if tx.FraudProbability != nil {
		probability = strconv.FormatFloat(*tx.FraudProbability, 'f', -1, 64)
	}
	return []string{
		tx.ID.String(),
		tx.TransactionTime,
		tx.Initiator,
		tx.Recipient,
		tx.Amount.String(),
		string(tx.Type),
		string(tx.Status),
		probability,
		string(tx.Severity),
		tx.Location,
		tx.Description,
	}
}

// WriteCSV writes the rows as RFC 4180 CSV with a header row. Zero rows
// produce a valid header-only file.
func WriteCSV(w io.Writer, rows []entities.DisplayTransaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, tx := range rows {
		if err := cw.Write(rowValues(tx)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	metrics.ExportsTotal.WithLabelValues("csv").Inc()
	return nil
}

// WriteXLSX writes the rows to a single-sheet workbook. Zero rows produce
// a valid workbook with only the header row.
func WriteXLSX(w io.Writer, rows []entities.DisplayTransaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(xlsxSheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for i, tx := range rows {
		for col, value := range rowValues(tx) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	metrics.ExportsTotal.WithLabelValues("xlsx").Inc()
	return nil
}
