package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

type trace struct {
	capacity int
	keys     []string
}

// readTrace parses "capacity n k1 ... kn". Keys are arbitrary words.
func readTrace(r io.Reader) (trace, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if sc.Scan() {
			return sc.Text(), nil
		}
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("read %s: %w", what, err)
		}
		return "", fmt.Errorf("read %s: %w", what, io.ErrUnexpectedEOF)
	}

	var tr trace
	tok, err := next("capacity")
	if err != nil {
		return tr, err
	}
	if tr.capacity, err = strconv.Atoi(tok); err != nil {
		return tr, fmt.Errorf("invalid capacity %q: %w", tok, err)
	}
	tok, err = next("count")
	if err != nil {
		return tr, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return tr, fmt.Errorf("invalid access count %q", tok)
	}

	tr.keys = make([]string, 0, min(n, 1<<20))
	for i := 0; i < n; i++ {
		k, err := next(fmt.Sprintf("key %d", i))
		if err != nil {
			return tr, err
		}
		tr.keys = append(tr.keys, k)
	}
	return tr, nil
}
