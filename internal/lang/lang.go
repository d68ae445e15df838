package lang

import (
	"path/filepath"
	"strings"
)

type ID string

const (
	Plain  ID = "plain"
	Python ID = "python"
)

var extMap = map[string]ID{
	".py":  Python,
	".pyi": Python,
	".pyw": Python,
	".pyx": Python,
	".pxd": Python,
}

var fileMap = map[string]ID{
	"SConstruct": Python,
	"SConscript": Python,
	"wscript":    Python,
}

func Detect(path string) ID {
	base := filepath.Base(path)
	if id, ok := fileMap[base]; ok {
		return id
	}
	ext := strings.ToLower(filepath.Ext(base))
	if id, ok := extMap[ext]; ok {
		return id
	}
	return Plain
}

func DetectWithShebang(path string, firstLine string) ID {
	if id := Detect(path); id != Plain {
		return id
	}

	if !strings.HasPrefix(firstLine, "#!") {
		return Plain
	}
	if strings.Contains(strings.ToLower(firstLine), "python") {
		return Python
	}
	return Plain
}
