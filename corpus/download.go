package corpus

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultURL is Tomas Mikolov's PTB distribution, the archive the three
// split files come from.
const DefaultURL = "http://www.fit.vutbr.cz/~imikolov/rnnlm/simple-examples.tgz"

// DefaultDirCreationPerm is used when creating directories for downloads.
const DefaultDirCreationPerm = os.FileMode(0755)

// Download fetches the PTB archive from DefaultURL and extracts the three
// split files into destDir. Files already present in destDir are left alone,
// so repeated calls are cheap. Concurrent processes downloading into the
// same destDir are coordinated through a lock file.
func Download(ctx context.Context, destDir string) error {
	return DownloadFromURL(ctx, DefaultURL, destDir)
}

// DownloadFromURL is Download with a caller-supplied archive URL, which must
// point at a gzipped tarball containing the three split files.
func DownloadFromURL(ctx context.Context, url, destDir string) error {
	if haveSplits(destDir) {
		return nil
	}
	archivePath := filepath.Join(destDir, path.Base(url))
	if err := lockedDownload(ctx, url, archivePath); err != nil {
		return err
	}
	return extractSplits(archivePath, destDir)
}

func haveSplits(dir string) bool {
	for _, name := range []string{TrainFile, ValidFile, TestFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// lockedDownload fetches url to filePath.
//
// If filePath exists, it is assumed to already have been correctly
// downloaded, and lockedDownload returns immediately.
//
// It downloads to filePath+".downloading" and then atomically moves it to
// filePath. A filePath+".lock" file coordinates multiple processes trying to
// download the same file at the same time.
func lockedDownload(ctx context.Context, url, filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		if _, err := os.Stat(filePath); err == nil {
			// Some concurrent other process already downloaded the file.
			return
		}
		tmpPath := filePath + ".downloading"
		mainErr = fetchURL(ctx, url, tmpPath)
		if mainErr != nil {
			mainErr = errors.WithMessagef(mainErr, "while downloading %q to %q", url, tmpPath)
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// fetchURL downloads url into tmpPath, removing tmpPath on failure.
func fetchURL(ctx context.Context, url, tmpPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %q", url)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fetching %q", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fetching %q: unexpected status %s", url, resp.Status)
	}

	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for download in %q", tmpPath)
	}
	klog.V(1).Infof("downloading %s to %s", url, tmpPath)
	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "downloading %q", url)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to close temporary download file %q", tmpPath)
	}
	return nil
}

// extractSplits scans the gzipped tarball at archivePath and writes the
// three split files into destDir, matching entries by base name.
func extractSplits(archivePath, destDir string) error {
	wanted := map[string]bool{TrainFile: true, ValidFile: true, TestFile: true}

	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open archive %q", archivePath)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "archive %q is not gzip-compressed", archivePath)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading archive %q", archivePath)
		}
		name := path.Base(hdr.Name)
		if hdr.Typeflag != tar.TypeReg || !wanted[name] {
			continue
		}
		outPath := filepath.Join(destDir, name)
		out, err := os.Create(outPath)
		if err != nil {
			return errors.Wrapf(err, "failed to create %q", outPath)
		}
		if _, err := io.Copy(out, tr); err != nil {
			_ = out.Close()
			return errors.Wrapf(err, "extracting %q from %q", hdr.Name, archivePath)
		}
		if err := out.Close(); err != nil {
			return errors.Wrapf(err, "failed to close %q", outPath)
		}
		klog.V(1).Infof("extracted %s", outPath)
		delete(wanted, name)
	}
	if len(wanted) > 0 {
		return errors.Errorf("archive %q is missing split files: %v", archivePath, keys(wanted))
	}
	return nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// execOnFileLock opens the lockPath file (or creates it if it doesn't yet
// exist), locks it, and executes the function. If lockPath is already
// locked, it polls with a 1 to 2 seconds period (randomly) until it acquires
// the lock.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		}
	}()
	fn()
	return
}
