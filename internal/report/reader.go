package report

import (
	"encoding/xml"
	"io"
)

// ReadResults parses and returns all <result> elements from the reader.
func ReadResults(r io.Reader) ([]Result, error) {
	dec := xml.NewDecoder(r)
	var results []Result

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		if startElem, ok := tok.(xml.StartElement); ok && startElem.Name.Local == "result" {
			var res Result
			if err := dec.DecodeElement(&res, &startElem); err != nil {
				return nil, err
			}
			results = append(results, res)
		}
	}
	return results, nil
}
