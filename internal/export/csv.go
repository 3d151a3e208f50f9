package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/starford/lumina/internal/models"
)

// bom makes spreadsheet applications detect UTF-8.
const bom = "\ufeff"

// CSV writes entries as comma separated values with a UTF-8 byte order mark.
// Every data cell is quoted; the header row is not.
func CSV(w io.Writer, entries []models.Entry) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(bom)
	bw.WriteString(strings.Join(header, ","))
	for _, e := range entries {
		bw.WriteString("\n")
		for i, cell := range row(e) {
			if i > 0 {
				bw.WriteString(",")
			}
			bw.WriteString(quote(cell))
		}
	}
	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
