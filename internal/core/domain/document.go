package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusAnalyzing  DocumentStatus = "analyzing"
	StatusClassified DocumentStatus = "classified"
	// StatusError is reserved for future validation failures; nothing sets it today.
	StatusError DocumentStatus = "error"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusAnalyzing, StatusClassified, StatusError:
		return true
	default:
		return false
	}
}

// Category is the simulated content classification outcome.
type Category string

const (
	CategoryInvoice  Category = "invoice"
	CategoryContract Category = "contract"
	CategoryReport   Category = "report"
	CategoryOther    Category = "other"
)

// Categories lists every assignable category in display order.
var Categories = []Category{CategoryInvoice, CategoryContract, CategoryReport, CategoryOther}

func (c Category) Valid() bool {
	switch c {
	case CategoryInvoice, CategoryContract, CategoryReport, CategoryOther:
		return true
	default:
		return false
	}
}

// FormatClass is the coarse file format bucket derived from a file name extension.
type FormatClass string

const (
	FormatPDF   FormatClass = "pdf"
	FormatWord  FormatClass = "word"
	FormatExcel FormatClass = "excel"
	FormatText  FormatClass = "text"
	FormatOther FormatClass = "other"
)

// FormatClasses lists every format class in folder order.
var FormatClasses = []FormatClass{FormatPDF, FormatWord, FormatExcel, FormatText, FormatOther}

var formatByExtension = map[string]FormatClass{
	"doc":  FormatWord,
	"docx": FormatWord,
	"xls":  FormatExcel,
	"xlsx": FormatExcel,
	"csv":  FormatExcel,
	"pdf":  FormatPDF,
	"txt":  FormatText,
	"rtf":  FormatText,
}

var formatLabels = map[FormatClass]string{
	FormatPDF:   "PDF documents",
	FormatWord:  "Word documents",
	FormatExcel: "Excel files",
	FormatText:  "Text files",
	FormatOther: "Other files",
}

func (f FormatClass) Valid() bool {
	_, ok := formatLabels[f]
	return ok
}

// Label is the human readable folder title of the format class.
func (f FormatClass) Label() string {
	if label, ok := formatLabels[f]; ok {
		return label
	}
	return string(f)
}

// FormatClassOf maps a file name to its format class using the extension after the last dot.
// Matching is case-insensitive and exact otherwise: "notes.pdf " has extension "pdf " and
// maps to FormatOther, as do unknown or missing extensions.
func FormatClassOf(name string) FormatClass {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return FormatOther
	}
	if class, ok := formatByExtension[strings.ToLower(name[dot+1:])]; ok {
		return class
	}
	return FormatOther
}

// FileDescriptor is one raw input file: the catalog never sees the bytes.
type FileDescriptor struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size"`
}

func (d FileDescriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return WrapError(ErrInvalidInput, "validate file descriptor", fmt.Errorf("file name is required"))
	}
	if d.SizeBytes < 0 {
		return WrapError(ErrInvalidInput, "validate file descriptor", fmt.Errorf("negative size for %q", d.Name))
	}
	return nil
}

type Document struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	FormatClass FormatClass    `json:"format_class"`
	Category    Category       `json:"category,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	SizeBytes   int64          `json:"size"`
	Status      DocumentStatus `json:"status"`
}

// CanTransition reports whether a document in status from may move to status to.
func CanTransition(from, to DocumentStatus) bool {
	return from == StatusAnalyzing && (to == StatusClassified || to == StatusError)
}

// FormatSize renders a byte count the way the inbox lists show it, e.g. "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(bytes)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(value*10)/10, 'f', -1, 64) + " " + units[i]
}
