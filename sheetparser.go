package quizdrill

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	colQuestion = "题目"
	colAnswer   = "答案"
	colAnalysis = "解析"

	// headerScanRows is how many rows below the first one may hold the header
	headerScanRows = 10
)

var (
	questionHeaders = []string{"题目", "题干", "问题", "Question"}

	columnAliases = map[string]string{
		"题干":       colQuestion,
		"问题":       colQuestion,
		"Question": colQuestion,
		"正确答案":     colAnswer,
		"Answer":   colAnswer,
		"Analysis": colAnalysis,
	}

	optionLetters = []string{"A", "B", "C", "D", "E", "F"}
)

// ReadCSV reads all records of a CSV file. Files that are not valid UTF-8 are
// decoded as GBK, which is what spreadsheet tools on Chinese Windows emit.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if !utf8.Valid(data) {
		VerboseLog("csv is not valid utf-8, decoding as gbk")
		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode csv as gbk: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// ReadXLSX reads all rows of the first sheet of a workbook
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// ParseRows turns spreadsheet rows into questions. The header row is the
// first row unless a row close to the top names the question column.
// Rows without a question or without any option are skipped; the id of a
// question is its 0-based data row index.
func ParseRows(rows [][]string) []Question {
	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		return nil
	}

	columns := standardizeColumns(rows[headerIdx])
	qCol, ok := columns[colQuestion]
	if !ok {
		return nil
	}
	aCol, ok := columns[colAnswer]
	if !ok {
		return nil
	}

	var questions []Question
	for i, row := range rows[headerIdx+1:] {
		text := cell(row, qCol)
		if text == "" {
			continue
		}

		var options []string
		for _, tag := range optionLetters {
			if opt := optionCell(row, columns, tag); opt != "" {
				options = append(options, tag+". "+opt)
			}
		}
		if len(options) == 0 {
			VerboseLog("skipping row without options", zap.Int("row", i))
			continue
		}

		answer := normalizeSheetAnswer(cell(row, aCol))
		qType := SingleChoice
		if len(answer) > 1 {
			qType = MultipleChoice
		}

		analysis := NoAnalysis
		if col, ok := columns[colAnalysis]; ok {
			if v := cell(row, col); v != "" {
				analysis = v
			}
		}

		questions = append(questions, Question{
			ID:       i,
			Question: text,
			Options:  options,
			Answer:   answer,
			Type:     qType,
			Analysis: analysis,
		})
	}
	return questions
}

func findHeaderRow(rows [][]string) int {
	if len(rows) == 0 {
		return -1
	}
	if hasQuestionHeader(rows[0], []string{colQuestion}) {
		return 0
	}
	for i := 1; i < len(rows) && i <= headerScanRows; i++ {
		if hasQuestionHeader(rows[i], questionHeaders) {
			return i
		}
	}
	return 0
}

func hasQuestionHeader(row []string, names []string) bool {
	for _, v := range row {
		v = strings.TrimSpace(v)
		for _, name := range names {
			if v == name {
				return true
			}
		}
	}
	return false
}

// standardizeColumns maps canonical column names to their index. The first
// column wins when two headers map to the same name.
func standardizeColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	return columns
}

func optionCell(row []string, columns map[string]int, tag string) string {
	for _, name := range []string{"选项" + tag, tag, "Option " + tag, "Option" + tag} {
		if col, ok := columns[name]; ok {
			if v := cell(row, col); v != "" {
				return v
			}
		}
	}
	return ""
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func normalizeSheetAnswer(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(",", "", "，", "", " ", "", ".0", "").Replace(s)
}
