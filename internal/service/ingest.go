package service

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/model"
	"github.com/user/cinema/internal/utils"
)

// archiveEntries 压缩包内文件 -> 用户集合
var archiveEntries = []struct {
	Path       string
	Collection model.Collection
}{
	{"watched.csv", model.CollectionWatched},
	{"ratings.csv", model.CollectionRatings},
	{"reviews.csv", model.CollectionReviews},
	{"watchlist.csv", model.CollectionWatchlist},
	{"likes/films.csv", model.CollectionLikes},
}

// letterboxd-<name>-YYYY-MM-DD-HH-MM-utc.zip 中的日期及之后部分
var dateSuffix = regexp.MustCompile(`-\d{4}-\d{2}-\d{2}.*`)

// DisplayName 从压缩包文件名推导用户名
func DisplayName(fileName string) string {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, ".zip")
	name = strings.TrimPrefix(name, "letterboxd-")
	if loc := dateSuffix.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	if name == "" {
		return base
	}
	return name
}

// Ingestor 解析 Letterboxd 导出压缩包
type Ingestor struct {
	log *logrus.Entry
}

// NewIngestor 创建解析器
func NewIngestor() *Ingestor {
	return &Ingestor{log: logger.Component("ingest")}
}

// Ingest 解析压缩包并生成用户。缺失的 CSV 保持空集合
func (i *Ingestor) Ingest(fileName string, r io.ReaderAt, size int64) (*model.User, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &ArchiveDecodeError{Archive: fileName, Err: err}
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, exists := files[f.Name]; !exists {
			files[f.Name] = f
		}
	}

	user := model.NewUser(DisplayName(fileName))
	log := i.log.WithFields(logrus.Fields{"archive": fileName, "user": user.Name})

	for _, entry := range archiveEntries {
		f, ok := files[entry.Path]
		if !ok {
			log.Debugf("%s: 未找到", entry.Path)
			continue
		}

		text, err := readEntry(f)
		if err != nil {
			return nil, &ArchiveDecodeError{Archive: fileName, Err: fmt.Errorf("读取 %s: %w", entry.Path, err)}
		}

		rows := utils.ParseCSV(text)
		if err := assignCollection(user, entry.Collection, rows); err != nil {
			var mismatch *model.SchemaMismatchError
			if errors.As(err, &mismatch) {
				log.WithError(err).Warn("列不完整，缺失字段按空值处理")
			} else {
				return nil, &ArchiveDecodeError{Archive: fileName, Err: err}
			}
		}
		log.Debugf("%s: %d 条", entry.Collection, len(rows))
	}

	log.WithFields(logrus.Fields{
		"watched":   len(user.Watched),
		"ratings":   len(user.Ratings),
		"reviews":   len(user.Reviews),
		"watchlist": len(user.Watchlist),
		"likes":     len(user.Likes),
	}).Info("压缩包解析完成")

	return user, nil
}

// IngestFile 从磁盘读取压缩包
func (i *Ingestor) IngestFile(path string) (*model.User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ArchiveDecodeError{Archive: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ArchiveDecodeError{Archive: path, Err: err}
	}
	return i.Ingest(filepath.Base(path), f, info.Size())
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ToValidUTF8(text, "\uFFFD"), nil
}

func assignCollection(u *model.User, coll model.Collection, rows []model.FilmRecord) error {
	var err error
	switch coll {
	case model.CollectionWatched:
		u.Watched, err = model.ToWatched(rows)
	case model.CollectionRatings:
		u.Ratings, err = model.ToRatings(rows)
	case model.CollectionReviews:
		u.Reviews, err = model.ToReviews(rows)
	case model.CollectionWatchlist:
		u.Watchlist, err = model.ToWatchlist(rows)
	case model.CollectionLikes:
		u.Likes, err = model.ToLikes(rows)
	default:
		return fmt.Errorf("未知集合: %s", coll)
	}
	return err
}
