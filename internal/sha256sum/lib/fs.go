package lib

import (
	"fmt"
	"os"

	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
)

// openInput opens path for reading and makes sure it is something that can be
// streamed. Every failure is reported as a FILE_OPEN error so the shell can
// print a single diagnostic for missing, unreadable and non-regular paths.
// The caller must close the returned file.
func openInput(path string) (*os.File, os.FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeFileOpen,
			fmt.Sprintf("%s does not exist or cannot be opened", path), err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeFileOpen,
			fmt.Sprintf("cannot stat %s", path), err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, nil, apperrors.New(apperrors.ErrCodeFileOpen,
			fmt.Sprintf("%s is a directory", path))
	}

	return file, info, nil
}
