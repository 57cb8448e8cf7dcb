//go:build openzl && cgo

// Package openzl binds the OpenZL structured compression library through cgo.
//
// Build with the openzl tag and make the library visible to the C toolchain:
//
//	CGO_CFLAGS=-I/opt/openzl/include CGO_LDFLAGS=-L/opt/openzl/lib go build -tags openzl ./...
//
// Native result reports are checked once at the cgo boundary and converted to
// *engine.Error; no ZL_Report escapes this package.
package openzl

/*
#cgo LDFLAGS: -lopenzl -lzstd
#include <stdlib.h>
#include "openzl/openzl.h"

static int zlb_is_error(ZL_Report r) { return ZL_isError(r) ? 1 : 0; }
static size_t zlb_value(ZL_Report r) { return ZL_validResult(r); }
static int zlb_code(ZL_Report r) { return (int)ZL_errorCode(r); }

static ZL_Report zlb_select_generic(ZL_Compressor* c) {
	return ZL_Compressor_selectStartingGraphID(c, ZL_GRAPH_COMPRESS_GENERIC);
}

static ZL_Report zlb_set_format_version(ZL_Compressor* c) {
	return ZL_Compressor_setParameter(c, ZL_CParam_formatVersion, ZL_MAX_FORMAT_VERSION);
}

// Metadata id 0 is the clustering tag.
static ZL_Report zlb_compress_tagged(ZL_CCtx* cctx, void* dst, size_t dstCap,
                                     ZL_TypedRef* ref, int tag) {
	ZL_Report r = ZL_Data_setIntMetadata((ZL_Data*)ref, 0, tag);
	if (ZL_isError(r)) {
		return r;
	}
	const ZL_Input* inputs[1] = { (const ZL_Input*)ref };
	return ZL_CCtx_compressMultiTypedRef(cctx, dst, dstCap, inputs, 1);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/format"
)

// Name is the engine name reported in results.
const Name = "openzl"

func toCode(r C.ZL_Report) engine.Code {
	switch C.zlb_code(r) {
	case C.ZL_ErrorCode_no_error:
		return engine.CodeNone
	case C.ZL_ErrorCode_corruption:
		return engine.CodeCorruption
	case C.ZL_ErrorCode_srcSize_tooSmall:
		return engine.CodeSrcSizeTooSmall
	case C.ZL_ErrorCode_srcSize_tooLarge:
		return engine.CodeSrcSizeTooLarge
	case C.ZL_ErrorCode_dstCapacity_tooSmall:
		return engine.CodeDstCapacityTooSmall
	case C.ZL_ErrorCode_allocation:
		return engine.CodeAllocation
	default:
		return engine.CodeGeneric
	}
}

func check(op string, r C.ZL_Report) error {
	if C.zlb_is_error(r) == 0 {
		return nil
	}

	return &engine.Error{Op: op, Code: toCode(r)}
}

func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}

	return unsafe.Pointer(&b[0])
}

// Engine is the OpenZL binding. It holds no native state of its own.
type Engine struct{}

var _ engine.Engine = Engine{}

// New returns the OpenZL engine.
func New() Engine {
	return Engine{}
}

func (Engine) Name() string {
	return Name
}

func (Engine) LoadModel(artifact []byte) (engine.ModelHandle, error) {
	if len(artifact) == 0 {
		return nil, engine.Errorf("load model", engine.CodeInvalidModel, "empty artifact")
	}

	c := C.ZL_Compressor_create()
	if c == nil {
		return nil, &engine.Error{Op: "load model", Code: engine.CodeAllocation}
	}

	d := C.ZL_CompressorDeserializer_create()
	if d == nil {
		C.ZL_Compressor_free(c)
		return nil, &engine.Error{Op: "load model", Code: engine.CodeAllocation}
	}

	r := C.ZL_CompressorDeserializer_deserialize(d, c, bytesPtr(artifact), C.size_t(len(artifact)))
	C.ZL_CompressorDeserializer_free(d)
	if err := check("load model", r); err != nil {
		C.ZL_Compressor_free(c)
		return nil, &engine.Error{Op: "load model", Code: engine.CodeInvalidModel, Detail: err.Error()}
	}

	if err := check("load model", C.zlb_set_format_version(c)); err != nil {
		C.ZL_Compressor_free(c)
		return nil, err
	}

	return &model{ptr: c}, nil
}

func (Engine) NewCompressor(m engine.ModelHandle) (engine.CompressorHandle, error) {
	cctx := C.ZL_CCtx_create()
	if cctx == nil {
		return nil, &engine.Error{Op: "create compressor", Code: engine.CodeAllocation}
	}
	h := &compressor{cctx: cctx}

	if m == nil {
		g := C.ZL_Compressor_create()
		if g == nil {
			C.ZL_CCtx_free(cctx)
			return nil, &engine.Error{Op: "create compressor", Code: engine.CodeAllocation}
		}
		if err := check("create compressor", C.zlb_set_format_version(g)); err != nil {
			C.ZL_Compressor_free(g)
			C.ZL_CCtx_free(cctx)
			return nil, err
		}
		if err := check("create compressor", C.zlb_select_generic(g)); err != nil {
			C.ZL_Compressor_free(g)
			C.ZL_CCtx_free(cctx)
			return nil, err
		}
		h.owned = g
		h.attached = g
	} else {
		zm, ok := m.(*model)
		if !ok {
			C.ZL_CCtx_free(cctx)
			return nil, engine.Errorf("create compressor", engine.CodeInvalidModel, "model was not loaded by openzl")
		}
		h.attached = zm.ptr
		h.tagged = true
	}

	if err := check("create compressor", C.ZL_CCtx_refCompressor(cctx, h.attached)); err != nil {
		h.Free()
		return nil, err
	}

	return h, nil
}

func (Engine) NewDecompressor() (engine.DecompressorHandle, error) {
	dctx := C.ZL_DCtx_create()
	if dctx == nil {
		return nil, &engine.Error{Op: "create decompressor", Code: engine.CodeAllocation}
	}

	return &decompressor{dctx: dctx}, nil
}

func (Engine) Equivalent(schema format.Schema, a, b []byte) bool {
	return engine.SemanticEqual(schema, a, b)
}

// model is a deserialized trained compressor. OpenZL compressors are
// read-only after deserialization and may be referenced by many contexts.
type model struct {
	ptr  *C.ZL_Compressor
	once sync.Once
}

// Schema is not recorded in OpenZL artifacts; callers track it themselves.
func (m *model) Schema() format.Schema {
	return format.SchemaUnknown
}

func (m *model) Free() {
	m.once.Do(func() {
		C.ZL_Compressor_free(m.ptr)
		m.ptr = nil
	})
}

type compressor struct {
	cctx     *C.ZL_CCtx
	owned    *C.ZL_Compressor
	attached *C.ZL_Compressor
	tagged   bool
}

func (c *compressor) Compress(src []byte, clusteringTag int) ([]byte, error) {
	if c.cctx == nil {
		return nil, engine.Errorf("compress", engine.CodeGeneric, "compressor already freed")
	}
	if len(src) == 0 {
		return nil, nil
	}

	dst := make([]byte, engine.CompressBound(len(src)))

	var r C.ZL_Report
	if c.tagged && clusteringTag != engine.NoClusteringTag {
		ref := C.ZL_TypedRef_createSerial(bytesPtr(src), C.size_t(len(src)))
		if ref == nil {
			return nil, &engine.Error{Op: "compress", Code: engine.CodeAllocation}
		}
		r = C.zlb_compress_tagged(c.cctx, bytesPtr(dst), C.size_t(len(dst)), ref, C.int(clusteringTag))
		C.ZL_TypedRef_free(ref)
	} else {
		r = C.ZL_CCtx_compress(c.cctx, bytesPtr(dst), C.size_t(len(dst)),
			bytesPtr(src), C.size_t(len(src)))
	}
	if err := check("compress", r); err != nil {
		return nil, err
	}

	return dst[:int(C.zlb_value(r))], nil
}

func (c *compressor) Free() {
	if c.cctx == nil {
		return
	}
	C.ZL_CCtx_free(c.cctx)
	c.cctx = nil
	if c.owned != nil {
		C.ZL_Compressor_free(c.owned)
		c.owned = nil
	}
	c.attached = nil
}

type decompressor struct {
	dctx *C.ZL_DCtx
}

func (d *decompressor) Decompress(src []byte) ([]byte, error) {
	if d.dctx == nil {
		return nil, engine.Errorf("decompress", engine.CodeGeneric, "decompressor already freed")
	}
	if len(src) == 0 {
		return nil, nil
	}

	sr := C.ZL_getDecompressedSize(bytesPtr(src), C.size_t(len(src)))
	if C.zlb_is_error(sr) != 0 {
		return nil, &engine.Error{Op: "decompress", Code: engine.CodeUnknownSize}
	}

	dst := make([]byte, int(C.zlb_value(sr)))
	r := C.ZL_DCtx_decompress(d.dctx, bytesPtr(dst), C.size_t(len(dst)), bytesPtr(src), C.size_t(len(src)))
	if err := check("decompress", r); err != nil {
		return nil, err
	}

	return dst[:int(C.zlb_value(r))], nil
}

func (d *decompressor) Free() {
	if d.dctx == nil {
		return
	}
	C.ZL_DCtx_free(d.dctx)
	d.dctx = nil
}
