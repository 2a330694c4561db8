// Package file implements topic.Driver and topic.Inventory over a
// newline-delimited JSON file, where the cursor is the byte offset of
// the next unread record.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/topic"
)

type messageRecord struct {
	Message topic.Message `json:"message"`
}

type itemRecord struct {
	Item topic.Item `json:"item"`
}

// Topic is a newline-delimited-JSON file Driver. Its cursor is the byte
// offset of the next unread record; Publish appends a record and fsyncs.
type Topic struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	offset int64
}

// NewTopic returns a file-backed topic at path; Open opens the file,
// creating it if needed.
func NewTopic(path string) *Topic {
	return &Topic{path: path}
}

func (t *Topic) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open topic file %s", t.path)
	}
	t.file = f
	return nil
}

func (t *Topic) Run(ctx context.Context) (<-chan topic.ScopedMessage, error) {
	out := make(chan topic.ScopedMessage)
	go func() {
		defer close(out)

		r, err := os.Open(t.path)
		if err != nil {
			return
		}
		defer r.Close()

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var offset int64
		for scanner.Scan() {
			line := scanner.Bytes()
			lineLen := int64(len(line)) + 1
			var rec messageRecord
			if err := json.Unmarshal(line, &rec); err == nil {
				select {
				case out <- topic.ScopedMessage{Message: rec.Message, Release: func() {}}:
					t.mu.Lock()
					t.offset = offset + lineLen
					t.mu.Unlock()
				case <-ctx.Done():
					return
				}
			}
			offset += lineLen
		}
	}()
	return out, nil
}

func (t *Topic) Publish(ctx context.Context, msg topic.Message, wait bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return false, errors.New("file topic not open")
	}

	b, err := json.Marshal(messageRecord{Message: msg})
	if err != nil {
		return false, errors.Wrap(err, "marshal message")
	}
	b = append(b, '\n')

	if _, err := t.file.Write(b); err != nil {
		return false, errors.Wrap(err, "append to topic file")
	}
	if err := t.file.Sync(); err != nil {
		return false, errors.Wrap(err, "sync topic file")
	}
	return true, nil
}

func (t *Topic) Cursor() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strconv.FormatInt(t.offset, 10)
}

func (t *Topic) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// Inventory is a newline-delimited-JSON file Inventory. Iterate resumes
// from the byte offset encoded in after (empty means from the start).
type Inventory struct {
	mu     sync.Mutex
	path   string
	offset int64
}

// NewInventory returns an inventory reading items from path; Open creates
// the file if it does not exist, and Iterate opens it.
func NewInventory(path string) *Inventory {
	return &Inventory{path: path}
}

func (inv *Inventory) Open(ctx context.Context) error {
	_, err := os.Stat(inv.path)
	if os.IsNotExist(err) {
		f, createErr := os.OpenFile(inv.path, os.O_CREATE|os.O_WRONLY, 0o644)
		if createErr != nil {
			return errors.Wrapf(createErr, "create inventory file %s", inv.path)
		}
		return f.Close()
	}
	return err
}

func (inv *Inventory) Iterate(ctx context.Context, after string) (<-chan topic.Item, error) {
	startOffset := int64(0)
	if after != "" {
		parsed, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse cursor %q", after)
		}
		startOffset = parsed
	}

	f, err := os.Open(inv.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open inventory file %s", inv.path)
	}
	if _, err := f.Seek(startOffset, os.SEEK_SET); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "seek inventory file")
	}

	out := make(chan topic.Item)
	go func() {
		defer close(out)
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		offset := startOffset
		for scanner.Scan() {
			line := scanner.Bytes()
			lineLen := int64(len(line)) + 1
			var rec itemRecord
			if err := json.Unmarshal(line, &rec); err == nil {
				item := rec.Item
				if item.Cursor == "" {
					item.Cursor = strconv.FormatInt(offset+lineLen, 10)
				}
				select {
				case out <- item:
					inv.mu.Lock()
					inv.offset = offset + lineLen
					inv.mu.Unlock()
				case <-ctx.Done():
					return
				}
			}
			offset += lineLen
		}
	}()
	return out, nil
}

func (inv *Inventory) Cursor() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return strconv.FormatInt(inv.offset, 10)
}

func (inv *Inventory) Close() error { return nil }
