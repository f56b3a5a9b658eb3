package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// maxRequestBody caps every request body regardless of encoding. A full
// 500-entry log batch stays well under this in all three encodings.
const maxRequestBody = 64 << 10

const (
	contentJSON     = "application/json"
	contentCBOR     = "application/cbor"
	contentProtobuf = "application/x-protobuf"
)

var errEmptyBody = errors.New("empty request body")

// codec is one wire encoding a node may speak. Responses go back in the
// encoding the request arrived in.
type codec struct {
	contentType string
	unmarshal   func([]byte, any) error
	marshal     func(any) ([]byte, error)
}

// Package-level initializers, not init(): cborCodec takes their method
// values and must see them built.
var (
	cborEnc = mustCBOREncMode()
	cborDec = mustCBORDecMode()
)

func mustCBOREncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("httpapi: CBOR encoder initialization failed: " + err.Error())
	}
	return em
}

// Struct fields fall back to their json tags, so the wire names match
// across encodings.
func mustCBORDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("httpapi: CBOR decoder initialization failed: " + err.Error())
	}
	return dm
}

var (
	jsonCodec  = codec{contentType: contentJSON, unmarshal: json.Unmarshal, marshal: json.Marshal}
	cborCodec  = codec{contentType: contentCBOR, unmarshal: cborDec.Unmarshal, marshal: cborEnc.Marshal}
	protoCodec = codec{contentType: contentProtobuf, unmarshal: unmarshalStruct, marshal: marshalStruct}
)

// negotiate picks the codec from Content-Type, or from Accept for
// bodiless requests. Anything unrecognised is treated as JSON.
func negotiate(r *http.Request) codec {
	h := r.Header.Get("Content-Type")
	if h == "" {
		h = r.Header.Get("Accept")
	}
	mt, _, err := mime.ParseMediaType(h)
	if err != nil {
		return jsonCodec
	}
	switch mt {
	case contentCBOR:
		return cborCodec
	case contentProtobuf, "application/protobuf", "application/octet-stream":
		return protoCodec
	default:
		return jsonCodec
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	return negotiate(r).unmarshal(body, v)
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	c := negotiate(r)
	data, err := c.marshal(v)
	if err != nil {
		writeText(w, http.StatusInternalServerError, "encode error")
		return
	}
	w.Header().Set("Content-Type", c.contentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeText sends msg as the whole body. http.Error would append a
// newline, and nodes compare these bodies byte for byte.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
