package dimacs

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseModels reads filename and returns each line's model as a []bool
// indexed by variable position.
func ParseModels(filename string) ([][]bool, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "dimacs: opening %q", filename)
	}
	defer file.Close()

	models := [][]bool{}
	scanner := bufio.NewScanner(file)
	for line := 0; scanner.Scan(); line++ {
		text := scanner.Text()
		if text == "" {
			continue
		}

		literals := strings.Fields(text)
		model := make([]bool, 0, len(literals))

		for _, ls := range literals {
			if ls == "0" {
				continue
			}
			l, err := strconv.Atoi(ls)
			if err != nil {
				return nil, errors.Wrapf(err, "dimacs: parsing %q line %d, literal %q", filename, line+1, ls)
			}
			model = append(model, l > 0)
		}

		models = append(models, model)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "dimacs: reading %q", filename)
	}

	return models, nil
}
