package lsm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// sstableIterator reads one SSTable's records sequentially, decoding both
// key and value at each step (compaction needs the value; a point lookup
// never does, which is why SSTable.Get uses findValue directly instead).
type sstableIterator struct {
	f   *os.File
	r   *bufio.Reader
	key []byte
	val []byte
	ok  bool
}

func newSSTableIterator(path string) (*sstableIterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lsm: open %s for merge: %w", path, err)
	}
	it := &sstableIterator{f: f, r: bufio.NewReader(f)}
	if err := it.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return it, nil
}

func (it *sstableIterator) advance() error {
	var keyScratch []byte
	keyLen, err := readNextDatum(it.r, &keyScratch)
	if err != nil {
		if err == io.EOF {
			it.ok = false
			it.key, it.val = nil, nil
			return nil
		}
		return err
	}

	var valScratch []byte
	valLen, err := readNextDatum(it.r, &valScratch)
	if err != nil {
		return err
	}

	it.key = append([]byte(nil), keyScratch[:keyLen]...)
	it.val = append([]byte(nil), valScratch[:valLen]...)
	it.ok = true
	return nil
}

func (it *sstableIterator) close() error {
	return it.f.Close()
}

// mergeTables performs a k-way merge of tables: among readers whose
// current key is minimal, the reader belonging to the highest-indexed
// table wins (its value is newest); every reader tied on that key is
// advanced past its record, and the winner's record is the one written.
func mergeTables(tables []*SSTable, outPath string) error {
	iters := make([]*sstableIterator, len(tables))
	for i, t := range tables {
		it, err := newSSTableIterator(t.path)
		if err != nil {
			for _, prev := range iters[:i] {
				prev.close()
			}
			return err
		}
		iters[i] = it
	}
	defer func() {
		for _, it := range iters {
			it.close()
		}
	}()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("lsm: create merge output %s: %w", outPath, err)
	}
	w := bufio.NewWriter(out)

	for {
		minIdx := -1
		for i, it := range iters {
			if !it.ok {
				continue
			}
			if minIdx == -1 || bytes.Compare(it.key, iters[minIdx].key) < 0 {
				minIdx = i
			}
		}
		if minIdx == -1 {
			break
		}

		winner := minIdx
		for i := minIdx + 1; i < len(iters); i++ {
			if iters[i].ok && bytes.Equal(iters[i].key, iters[minIdx].key) && tables[i].index > tables[winner].index {
				winner = i
			}
		}

		rec, err := serializeEntry(iters[winner].key, iters[winner].val)
		if err != nil {
			out.Close()
			return err
		}
		if _, err := w.Write(rec); err != nil {
			out.Close()
			return fmt.Errorf("lsm: write merge output %s: %w", outPath, err)
		}

		minKey := iters[minIdx].key
		for _, it := range iters {
			if it.ok && bytes.Equal(it.key, minKey) {
				if err := it.advance(); err != nil {
					out.Close()
					return err
				}
			}
		}
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("lsm: flush merge output %s: %w", outPath, err)
	}
	return out.Close()
}
