package normalizer

import (
	"unicode/utf8"

	"github.com/mr-tron/base58"
)

// decodeAttachment decodes a base58 attachment into its UTF-8 text.
// Anything that fails to decode renders as the empty string; attachments
// are display sugar and never worth failing a transaction over.
func decodeAttachment(attachment string) string {
	if attachment == "" {
		return ""
	}

	raw, err := base58.Decode(attachment)
	if err != nil {
		return ""
	}
	if !utf8.Valid(raw) {
		return ""
	}
	return string(raw)
}
