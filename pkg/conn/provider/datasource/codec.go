package datasource

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

// stateVersion identifies the captured-state layout. Bump on layout changes.
const stateVersion byte = 1

// The captured state is a byte-exact, ordered encoding:
//
//	version
//	available            bool
//	user                 presence flag + string
//	pass                 presence flag + string
//	lookupService        presence flag + collaborator token
//	(only if available)
//	lookupName           presence flag + string
//	(only if lookupName absent)
//	source               presence flag + collaborator token
//
// A looked-up source is environment-specific and is never persisted; only its
// name is, so it can be re-resolved in the restoring environment. An injected
// source was handed in explicitly and is captured through the collaborator
// codec when present. The lookup-name field is presence-flagged rather than a
// raw string so an injected-source capture while available stays encodable.

type stateWriter struct {
	buf bytes.Buffer
}

func (w *stateWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *stateWriter) writeBytes(b []byte) {
	var size [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(size[:], uint64(len(b)))
	w.buf.Write(size[:n])
	w.buf.Write(b)
}

func (w *stateWriter) writeString(s string) {
	w.writeBytes([]byte(s))
}

type stateReader struct {
	r *bytes.Reader
}

func (r *stateReader) readBool() (bool, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *stateReader) readBytes() ([]byte, error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		return nil, err
	}
	if size > uint64(r.r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, size)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *stateReader) readString() (string, error) {
	b, err := r.readBytes()
	return string(b), err
}

// CaptureState produces the ordered encoding of the provider's resolved
// configuration. Collaborator handles are captured through collab.
func (p *DatasourceProvider) CaptureState(collab provider.CollaboratorCodec) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := &stateWriter{}
	w.buf.WriteByte(stateVersion)

	w.writeBool(p.available)
	w.writeBool(p.userSet)
	if p.userSet {
		w.writeString(p.user)
	}
	w.writeBool(p.passSet)
	if p.passSet {
		w.writeString(p.pass)
	}
	w.writeBool(p.lookupService != nil)
	if p.lookupService != nil {
		token, err := collab.Capture(p.lookupService)
		if err != nil {
			return nil, exception.NewProviderError(moduleName, "failed to capture lookup service", exception.KindConfiguration, err)
		}
		w.writeBytes(token)
	}
	if p.available {
		named := p.lookupName != ""
		w.writeBool(named)
		if named {
			w.writeString(p.lookupName)
		} else {
			w.writeBool(p.source != nil)
			if p.source != nil {
				token, err := collab.Capture(p.source)
				if err != nil {
					return nil, exception.NewProviderError(moduleName, "failed to capture injected source", exception.KindConfiguration, err)
				}
				w.writeBytes(token)
			}
		}
	}
	return w.buf.Bytes(), nil
}

// RestoreState reads the fields in capture order into this provider and, when
// the captured state was available, re-runs resolution to reconstruct and
// validate the source, surfacing the same configuration errors Configure
// would. Capturing while unavailable restores an unavailable provider with no
// resolution attempted.
func (p *DatasourceProvider) RestoreState(data []byte, collab provider.CollaboratorCodec) error {
	r := &stateReader{r: bytes.NewReader(data)}

	version, err := r.r.ReadByte()
	if err != nil {
		return corruptState(err)
	}
	if version != stateVersion {
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "unsupported state version %d", version)
	}

	available, err := r.readBool()
	if err != nil {
		return corruptState(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.available = false
	p.source = nil
	p.lookupName = ""
	p.mode = modeUnresolved
	p.user, p.pass = "", ""
	p.userSet, p.passSet = false, false
	p.useCredential = false
	p.lookupService = nil

	if p.userSet, err = r.readBool(); err != nil {
		return corruptState(err)
	}
	if p.userSet {
		if p.user, err = r.readString(); err != nil {
			return corruptState(err)
		}
	}
	if p.passSet, err = r.readBool(); err != nil {
		return corruptState(err)
	}
	if p.passSet {
		if p.pass, err = r.readString(); err != nil {
			return corruptState(err)
		}
	}

	hasLookup, err := r.readBool()
	if err != nil {
		return corruptState(err)
	}
	if hasLookup {
		token, err := r.readBytes()
		if err != nil {
			return corruptState(err)
		}
		restored, err := collab.Restore(token)
		if err != nil {
			return exception.NewProviderError(moduleName, "failed to restore lookup service", exception.KindConfiguration, err)
		}
		ls, ok := restored.(provider.LookupService)
		if !ok {
			return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "restored collaborator is not a lookup service: %T", restored)
		}
		p.lookupService = ls
	}

	if available {
		named, err := r.readBool()
		if err != nil {
			return corruptState(err)
		}
		if named {
			if p.lookupName, err = r.readString(); err != nil {
				return corruptState(err)
			}
			p.mode = modeNamed
		} else {
			hasSource, err := r.readBool()
			if err != nil {
				return corruptState(err)
			}
			if hasSource {
				token, err := r.readBytes()
				if err != nil {
					return corruptState(err)
				}
				restored, err := collab.Restore(token)
				if err != nil {
					return exception.NewProviderError(moduleName, "failed to restore injected source", exception.KindConfiguration, err)
				}
				source, ok := restored.(provider.PooledSource)
				if !ok {
					return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "restored collaborator is not a pooled source: %T", restored)
				}
				p.source = source
				p.mode = modeInjected
			}
		}
		if err := p.resolveLocked(); err != nil {
			return err
		}
		p.available = true
	}
	return nil
}

func corruptState(err error) error {
	return exception.NewProviderError(moduleName, "corrupt provider state", exception.KindConfiguration, err)
}
