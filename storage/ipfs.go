package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/ans-registry/interfaces"
)

// IPFSBackend stores content in the mutable file system of an IPFS node,
// under root/<type>/<id>. The files are pinned by the node like any other
// MFS entry.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	timeout     time.Duration
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend connects to the IPFS HTTP API at host:port.
func NewIPFSBackend(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	if root == "" || root == "/" {
		root = "/ans"
	}

	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		root:        "/" + strings.Trim(root, "/"),
		timeout:     timeout,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, root, timeout),
	}, nil
}

// Fetch reads content by id. Returns ErrContentNotFound if the file doesn't
// exist or ErrBackendUnavailable if the node is down.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	filePath := b.getFilePath(id, contentType)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, filePath)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil, interfaces.ErrContentNotFound
		}
		b.log.Error("Failed to fetch data from IPFS",
			slog.String("path", filePath),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("path", filePath),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes data under its content id.
func (b *IPFSBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)
	filePath := b.getFilePath(id, contentType)

	if !b.shell.IsUp() {
		return id, interfaces.ErrBackendUnavailable
	}

	err := b.shell.FilesWrite(ctx, filePath, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return id, fmt.Errorf("failed to add data to IPFS: %w", err)
	}

	b.log.Debug("Stored content in IPFS",
		slog.String("path", filePath),
		slog.String("contentID", id.String()))

	return id, nil
}

func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) getFilePath(id interfaces.ContentID, contentType interfaces.ContentType) string {
	return path.Join(b.root, contentType.String(), id.String())
}
