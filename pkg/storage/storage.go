package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"exg-recorder/pkg/storage/consts"
	"exg-recorder/pkg/storage/util"
)

// Storage lays out the files of one recording run below a data directory:
//
//	<root>/exg_<ts>            device recording prefix
//	<root>/exg_<ts>-videos.csv segment log
//	<root>/videos/exg_<ts>.avi one file per segment
type Storage struct {
	root string
	run  string
}

func New(root string, now time.Time) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root can not be empty")
	}
	s := &Storage{root: root, run: Name(now)}
	if err := util.MkdirAll(s.VideoDir()); err != nil {
		return nil, err
	}

	return s, nil
}

// Name is the datestamped base name shared by all files.
func Name(t time.Time) string {
	return consts.NamePrefix + t.Format(consts.NameTimeLayout)
}

func (s *Storage) Root() string {
	return s.root
}

func (s *Storage) RunName() string {
	return s.run
}

func (s *Storage) VideoDir() string {
	return filepath.Join(s.root, consts.DefaultVideosDir)
}

func (s *Storage) VideoPath(t time.Time) string {
	return filepath.Join(s.VideoDir(), Name(t)+consts.DefaultVideoExt)
}

func (s *Storage) DevicePrefix() string {
	return filepath.Join(s.root, s.run)
}

func (s *Storage) SegmentLogPath() string {
	return filepath.Join(s.root, s.run+consts.SegmentLogExt)
}
