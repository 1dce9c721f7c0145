package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mark3labs/mcp-go/mcp"
)

// registerFileTransferTools registers the SFTP-backed upload/download tools.
func (s *Server) registerFileTransferTools() {
	s.mcpServer.AddTool(sshUploadTool(), s.handleUpload)
	s.mcpServer.AddTool(sshDownloadTool(), s.handleDownload)
}

func sshUploadTool() mcp.Tool {
	return mcp.NewTool("ssh_upload",
		mcp.WithDescription("Upload local files to the connected host over SFTP. "+
			"localPath may be a glob pattern (e.g. 'dist/**/*.tar.gz'); when it matches "+
			"more than one file, remotePath is treated as a directory."),
		mcp.WithString("localPath",
			mcp.Required(),
			mcp.Description("Local file path or glob pattern"),
		),
		mcp.WithString("remotePath",
			mcp.Required(),
			mcp.Description("Destination path on the remote host"),
		),
		mcp.WithBoolean("createDirs",
			mcp.Description("Create remote parent directories if missing (default: false)"),
		),
	)
}

func sshDownloadTool() mcp.Tool {
	return mcp.NewTool("ssh_download",
		mcp.WithDescription("Download a file from the connected host over SFTP"),
		mcp.WithString("remotePath",
			mcp.Required(),
			mcp.Description("Path to the file on the remote host"),
		),
		mcp.WithString("localPath",
			mcp.Required(),
			mcp.Description("Local path to save the file"),
		),
		mcp.WithBoolean("createDirs",
			mcp.Description("Create local parent directories if missing (default: false)"),
		),
	)
}

// uploadedFile describes one transferred file in an upload result.
type uploadedFile struct {
	LocalPath  string `json:"localPath"`
	RemotePath string `json:"remotePath"`
	Bytes      int64  `json:"bytes"`
}

func (s *Server) handleUpload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	localPath := mcp.ParseString(req, "localPath", "")
	remotePath := mcp.ParseString(req, "remotePath", "")
	createDirs := mcp.ParseBoolean(req, "createDirs", false)

	if localPath == "" {
		return mcp.NewToolResultError("validation: localPath is required"), nil
	}
	if remotePath == "" {
		return mcp.NewToolResultError("validation: remotePath is required"), nil
	}

	ft, err := s.sessions.FileTransfer()
	if err != nil {
		return toolError(err), nil
	}

	matches, err := doublestar.FilepathGlob(localPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation: bad glob pattern: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("validation: no local files match %q", localPath)), nil
	}

	var uploaded []uploadedFile
	for _, local := range matches {
		info, err := os.Stat(local)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stat %s: %v", local, err)), nil
		}
		if info.IsDir() {
			continue
		}

		dest := remotePath
		if len(matches) > 1 {
			dest = path.Join(remotePath, filepath.Base(local))
		} else if st, err := ft.Stat(remotePath); err == nil && st.IsDir() {
			// Single match into an existing remote directory keeps the
			// local file name.
			dest = path.Join(remotePath, filepath.Base(local))
		}

		if createDirs {
			if err := ft.MkdirAll(path.Dir(dest)); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("create remote directories: %v", err)), nil
			}
		}

		n, err := s.uploadOne(ft, local, dest)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		uploaded = append(uploaded, uploadedFile{LocalPath: local, RemotePath: dest, Bytes: n})
	}

	if len(uploaded) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("validation: %q matched only directories", localPath)), nil
	}

	slog.Info("uploaded files", slog.Int("count", len(uploaded)))

	return jsonResult(map[string]any{
		"status": "uploaded",
		"files":  uploaded,
	})
}

// uploadOne copies one local file to the remote side.
func (s *Server) uploadOne(ft fileWriter, local, remote string) (int64, error) {
	src, err := os.Open(local)
	if err != nil {
		return 0, fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()

	dst, err := ft.Create(remote)
	if err != nil {
		return 0, fmt.Errorf("create remote file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("upload %s: %w", local, err)
	}
	return n, nil
}

// fileWriter is the subset of ports.FileTransfer used by uploadOne.
type fileWriter interface {
	Create(path string) (io.WriteCloser, error)
}

func (s *Server) handleDownload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	remotePath := mcp.ParseString(req, "remotePath", "")
	localPath := mcp.ParseString(req, "localPath", "")
	createDirs := mcp.ParseBoolean(req, "createDirs", false)

	if remotePath == "" {
		return mcp.NewToolResultError("validation: remotePath is required"), nil
	}
	if localPath == "" {
		return mcp.NewToolResultError("validation: localPath is required"), nil
	}

	ft, err := s.sessions.FileTransfer()
	if err != nil {
		return toolError(err), nil
	}

	src, err := ft.Open(remotePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open remote file: %v", err)), nil
	}
	defer src.Close()

	if createDirs {
		if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create local directories: %v", err)), nil
		}
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create local file: %v", err)), nil
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("download %s: %v", remotePath, err)), nil
	}

	slog.Info("downloaded file",
		slog.String("remote_path", remotePath),
		slog.Int64("bytes", n),
	)

	return jsonResult(map[string]any{
		"status":     "downloaded",
		"remotePath": remotePath,
		"localPath":  localPath,
		"bytes":      n,
	})
}
