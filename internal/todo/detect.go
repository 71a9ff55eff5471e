package todo

import (
	"todoscan/internal/parser"
)

var sources = parser.NewFactory()

// DetectFromFileContent parses JavaScript or TypeScript source and returns
// its TODO findings. Parse failures are returned as is.
func DetectFromFileContent(code string) ([]Finding, error) {
	return DetectWith(parser.NewTypeScriptParser(), defaultExtractor, "", []byte(code))
}

// DetectFromFile picks the comment source from the file extension.
func DetectFromFile(filePath string, code []byte) ([]Finding, error) {
	source, err := sources.GetSourceByFilePath(filePath)
	if err != nil {
		return nil, err
	}
	return DetectWith(source, defaultExtractor, filePath, code)
}

// DetectWith is the general form of DetectFromFile.
func DetectWith(source parser.CommentSource, e *Extractor, filePath string, code []byte) ([]Finding, error) {
	comments, err := source.ExtractComments(filePath, code)
	if err != nil {
		return nil, err
	}
	return e.Extract(comments), nil
}
