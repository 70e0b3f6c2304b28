package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Extractor pulls the text layer out of a PDF file. Returns an empty string
// when the file has no extractable text.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type pdfcpuExtractor struct {
	conf *model.Configuration
}

func New() Extractor {
	return &pdfcpuExtractor{conf: model.NewDefaultConfiguration()}
}

func (e *pdfcpuExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	tmp, err := os.MkdirTemp("", "pdftext-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := api.ExtractContentFile(path, tmp, nil, e.conf); err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	var b strings.Builder
	err = filepath.Walk(tmp, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		b.WriteString(decodeTextShowingOps(string(raw)))
		b.WriteByte('\n')
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

var textLiteralRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

// decodeTextShowingOps lifts string literals out of a page content stream.
// Only the literal payloads matter downstream, operator structure is ignored.
func decodeTextShowingOps(stream string) string {
	var b strings.Builder
	for _, m := range textLiteralRe.FindAllStringSubmatch(stream, -1) {
		b.WriteString(unescapeLiteral(m[1]))
		b.WriteByte(' ')
	}
	return b.String()
}

func unescapeLiteral(s string) string {
	r := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
	return r.Replace(s)
}

// StaticExtractor serves canned text keyed by file path. Test double.
type StaticExtractor struct {
	Texts map[string]string
}

func (e *StaticExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return e.Texts[path], nil
}
