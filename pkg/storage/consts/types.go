package consts

const (
	DefaultDataDir   = "data"
	DefaultVideosDir = "videos"

	NamePrefix      = "exg_"
	NameTimeLayout  = "2006-01-02_15-04-05"
	DefaultVideoExt = ".avi"
	SegmentLogExt   = "-videos.csv"

	DefaultFilePerm = 0666
	DefaultDirPerm  = 0777
)

var SegmentLogHeader = []string{"file_location", "start_time_from_epoch_s", "video_length_s", "marker"}
