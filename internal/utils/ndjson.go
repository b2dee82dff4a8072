package utils

import (
	"encoding/json"
	"net/http"
)

// NDJSONWriter streams newline-delimited JSON over a chunked response. Every
// Write flushes immediately; nothing is buffered across deltas.
type NDJSONWriter struct {
	w http.ResponseWriter
}

func NewNDJSONWriter(w http.ResponseWriter) *NDJSONWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &NDJSONWriter{w: w}
}

func (n *NDJSONWriter) Write(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, err := n.w.Write(append(data, '\n')); err != nil {
		return err
	}

	if f, ok := n.w.(http.Flusher); ok {
		f.Flush()
	}

	return nil
}
