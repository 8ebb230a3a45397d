package sheetaddr

// Column letters use bijective base-26 numbering: A=1 .. Z=26, AA=27,
// ZZ=702, AAA=703.

// ColumnLabel converts a 1-based column index to its letter form.
// Returns "" for indices below 1.
func ColumnLabel(i int) string {
	if i < 1 {
		return ""
	}

	var buf [8]byte
	n := len(buf)
	for i > 0 {
		i--
		n--
		buf[n] = byte('A' + i%26)
		i /= 26
	}
	return string(buf[n:])
}

// ColumnIndex converts a column letter label to its 1-based index.
func ColumnIndex(label string) (int, error) {
	if label == "" {
		return 0, &AddressParseError{Input: label, Reason: "empty column label"}
	}

	i := 0
	for _, c := range label {
		switch {
		case c >= 'A' && c <= 'Z':
			i = i*26 + int(c-'A') + 1
		case c >= 'a' && c <= 'z':
			i = i*26 + int(c-'a') + 1
		default:
			return 0, &AddressParseError{Input: label, Reason: "column labels are letters only"}
		}
	}
	return i, nil
}
