package service

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ReportFormat 报表导出格式
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ContentType 对应的 MIME 类型
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatCSV:
		return "text/csv; charset=utf-8"
	case ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// ParseReportFormat 空字符串默认 csv
func ParseReportFormat(s string) (ReportFormat, error) {
	switch ReportFormat(s) {
	case "", ReportFormatCSV:
		return ReportFormatCSV, nil
	case ReportFormatXLSX:
		return ReportFormatXLSX, nil
	case ReportFormatPDF:
		return ReportFormatPDF, nil
	default:
		return "", ErrReportFormatUnsupported
	}
}

var reportHeader = []string{
	"instructor_id", "name", "email", "period_id", "status",
	"day", "start_time", "end_time", "comments",
}

func (r ReportRow) record() []string {
	return []string{
		r.InstructorID, r.Name, r.Email, r.PeriodID, string(r.Status),
		r.Day, r.StartTime, r.EndTime, r.Comments,
	}
}

// renderCSV 表头 + 每行一条记录，引号转义由 encoding/csv 处理
func renderCSV(rows []ReportRow) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row.record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf, nil
}

// renderXLSX 单 Sheet：标题行 + 表头 + 数据行
func renderXLSX(title string, rows []ReportRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Availability"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	widths := []float64{16, 22, 28, 14, 10, 18, 11, 11, 40}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	pendingStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(colName(len(reportHeader)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range reportHeader {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(reportHeader)-1), 2), headerStyle)

	// 数据行
	for r, row := range rows {
		line := r + 3
		for i, v := range row.record() {
			f.SetCellValue(sheetName, cell(colName(i), line), v)
		}
		if row.Status == ReportStatusPending {
			f.SetCellStyle(sheetName, cell("A", line), cell(colName(len(reportHeader)-1), line), pendingStyle)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// renderPDF 横向 A4 表格，核心字体仅支持 cp1252，UTF-8 文本先转码
func renderPDF(title string, rows []ReportRow) (*bytes.Buffer, error) {
	pdf := buildReportPDF(title, rows)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}
	return buf, nil
}

// pdfColumn instructor_id 与 period_id 在标题中已体现，表格只保留可读列
type pdfColumn struct {
	header string
	width  float64
	value  func(ReportRow) string
}

var pdfColumns = []pdfColumn{
	{"Name", 45, func(r ReportRow) string { return r.Name }},
	{"Email", 55, func(r ReportRow) string { return r.Email }},
	{"Status", 22, func(r ReportRow) string { return string(r.Status) }},
	{"Day", 32, func(r ReportRow) string { return r.Day }},
	{"Start", 18, func(r ReportRow) string { return r.StartTime }},
	{"End", 18, func(r ReportRow) string { return r.EndTime }},
	{"Comments", 87, func(r ReportRow) string { return r.Comments }},
}

// buildReportPDF 标题只出现在首页，表头在每一页重复
func buildReportPDF(title string, rows []ReportRow) *gofpdf.Fpdf {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Arial", "B", 14)
			pdf.Cell(0, 8, tr(title))
			pdf.Ln(12)
		}
		pdf.SetFont("Arial", "B", 10)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, c.header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for _, c := range pdfColumns {
			text := tr(c.value(row))
			// 超出列宽截断，避免单元格重叠
			for len(text) > 0 && pdf.GetStringWidth(text) > c.width-2 {
				text = text[:len(text)-1]
			}
			pdf.CellFormat(c.width, 6, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
