package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject indica que la respuesta no contiene un objeto {...} ubicable.
var ErrNoJSONObject = errors.New("no json object in response")

// locateJSONObject devuelve el texto entre el primer '{' y el ultimo '}'.
// No intenta balancear llaves: si el comentario alrededor trae llaves, el parseo falla
// y el llamador usa su fallback.
func locateJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return raw[start : end+1], true
}

// ExtractJSON extrae y parsea el objeto JSON embebido en una respuesta de texto libre.
func ExtractJSON(raw string) (map[string]any, error) {
	var out map[string]any
	if err := decodeJSONObject(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeJSONObject aplica la misma regla que ExtractJSON pero decodifica en out.
func decodeJSONObject(raw string, out any) error {
	obj, ok := locateJSONObject(raw)
	if !ok {
		return ErrNoJSONObject
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("parse json object: %w", err)
	}
	return nil
}
