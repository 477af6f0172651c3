package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// overrideField is the body field that tunnels PUT and DELETE through POST.
const overrideField = "_method"

// ResolveMethod returns the method a request is dispatched as. Only a POST can
// be tunnelled, and only into PUT or DELETE; any other override is ignored.
func ResolveMethod(original, override string) string {
	if original != fiber.MethodPost {
		return original
	}
	switch m := strings.ToUpper(strings.TrimSpace(override)); m {
	case fiber.MethodPut, fiber.MethodDelete:
		return m
	}
	return original
}

// methodOverride reads the tunnelled method from a decoded body.
func methodOverride(body map[string]json.RawMessage) string {
	raw, ok := body[overrideField]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ResolveID picks the target task id from, in order, the path segment, the
// "id" query parameter and the body "id" field. The body is consulted only
// for PUT and DELETE. Values that are not positive integers count as absent.
func ResolveID(pathID, queryID string, bodyID json.RawMessage, method string) (int64, bool) {
	if id, ok := parseID(pathID); ok {
		return id, true
	}
	if id, ok := parseID(queryID); ok {
		return id, true
	}
	if method == fiber.MethodPut || method == fiber.MethodDelete {
		return parseBodyID(bodyID)
	}
	return 0, false
}

func parseID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, id > 0
	}
	// Accept integral floats such as "7.0".
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f <= 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseBodyID accepts a JSON number or a numeric JSON string.
func parseBodyID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseID(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return parseID(n.String())
}
