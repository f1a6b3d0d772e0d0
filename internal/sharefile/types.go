package sharefile

import (
	"time"

	"github.com/sharefile-samples/sharefile-go/internal/itemid"
)

// Item represents a ShareFile item (file, folder, or another entity that
// lives under Items). Fields are normalized from the API response; callers
// never see raw API data.
type Item struct {
	ID          itemid.ID
	ParentID    itemid.ID
	Name        string
	FileName    string
	Description string
	Size        int64
	Hash        string // md5 hex, files only
	IsFolder    bool
	CreatedAt   time.Time // zero when absent or unparseable
	Children    []Item    // nil unless the request expanded Children
}

// ItemUpdate is a partial update for UpdateItem. Empty fields are left
// unchanged on the server.
type ItemUpdate struct {
	Name        string
	Description string
}

// ClientUser is an account client user.
type ClientUser struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Company   string
}

// NewClientUser holds the fields for CreateClient.
type NewClientUser struct {
	Email             string
	FirstName         string
	LastName          string
	Company           string
	Password          string
	CanResetPassword  bool
	CanViewMySettings bool
	DefaultZoneID     string // optional
}

// UploadResult identifies the file the server stored, when it reports one.
type UploadResult struct {
	ID       itemid.ID
	FileName string
	Size     int64
	MD5      string
}
