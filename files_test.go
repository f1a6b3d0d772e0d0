package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
)

const helloMD5 = "5d41402abc4b2a76b9719d911017c592" // md5("hello")

// fakeShareFile serves the token endpoint and the subset of /sf/v3 the CLI
// commands call. Tests register extra handlers on mux.
type fakeShareFile struct {
	t   *testing.T
	srv *httptest.Server
	mux *http.ServeMux

	mu     sync.Mutex
	chunks map[int][]byte
}

func newFakeShareFile(t *testing.T) *fakeShareFile {
	t.Helper()

	f := &fakeShareFile{t: t, mux: http.NewServeMux(), chunks: make(map[int][]byte)}

	f.mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":28800,`+
			`"subdomain":"acme","apicp":"sharefile.com","appcp":"sharefile.com"}`)
	})

	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)

	return f
}

// handle registers an authenticated API handler.
func (f *fakeShareFile) handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "Bearer tok", r.Header.Get("Authorization"))
		h(w, r)
	})
}

// configPath writes a config file pointing the CLI at the fake server.
func (f *fakeShareFile) configPath(extra string) string {
	f.t.Helper()
	clearAccountEnv(f.t)

	return writeCLIConfig(f.t, fmt.Sprintf(`
[account]
hostname = %q
client_id = "cid"
client_secret = "csecret"
username = "me@example.com"
password = "pw"
api_base_url = %q
%s`, f.srv.URL, f.srv.URL+"/sf/v3", extra))
}

// runCLI executes the root command with args and returns what it wrote to
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"-q"}, args...))

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestLogin(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)

	out, err := runCLI(t, "--config", f.configPath(""), "login")
	require.NoError(t, err)
	assert.Contains(t, out, "acme")
	assert.Contains(t, out, "acme.sf-api.com")
}

func TestLogin_MissingCredentials(t *testing.T) {
	saveGlobals(t)
	clearAccountEnv(t)

	cfgPath := writeCLIConfig(t, "[account]\nhostname = \"acme.sharefile.com\"\n")

	_, err := runCLI(t, "--config", cfgPath, "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
	assert.Contains(t, err.Error(), "client_id")
}

func TestLs_RootWithChildren(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "$expand=Children", r.URL.RawQuery)
		fmt.Fprint(w, `{"Id":"fohome","Name":"Home","Children":[
			{"odata.type":"ShareFile.Api.Models.File","Id":"fi2","Name":"a.txt","FileSizeBytes":5},
			{"odata.type":"ShareFile.Api.Models.Folder","Id":"fo1","Name":"Docs"}
		]}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Home (fohome)")
	assert.Contains(t, out, "Docs/")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "5 B")
}

func TestLs_FolderJSON(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fo1)", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "$expand=Children", r.URL.RawQuery)
		fmt.Fprint(w, `{"Id":"fo1","Name":"Docs","Children":[{"Id":"fi2","Name":"a.txt"}]}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "--json", "ls", "fo1")
	require.NoError(t, err)

	var got itemJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "fo1", got.ID)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "fi2", got.Children[0].ID)
}

func TestFolder_DefaultAndCustomQuery(t *testing.T) {
	saveGlobals(t)

	var queries []string

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fo1)", func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		fmt.Fprint(w, `{"Id":"fo1","Name":"Docs","Children":[]}`)
	})

	cfgPath := f.configPath("")

	out, err := runCLI(t, "--config", cfgPath, "folder", "fo1")
	require.NoError(t, err)
	assert.Contains(t, out, "(empty)")

	_, err = runCLI(t, "--config", cfgPath, "folder", "fo1", "--expand", "Children,Parent", "--select", "Id")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"$expand=Children&$select=Id,Name,Children/Id,Children/Name,Children/CreationDate",
		"$expand=Children,Parent&$select=Id",
	}, queries)
}

func TestStat(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fi1)", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"odata.type":"ShareFile.Api.Models.File","Id":"fi1","Name":"report.pdf",
			"FileSizeBytes":1024,"Hash":"ABC","Parent":{"Id":"fo9"}}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "stat", "fi1")
	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "1024 bytes")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "fo9")
}

func TestStat_InvalidID(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)

	_, err := runCLI(t, "--config", f.configPath(""), "stat", "fi1)/Download")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid item id")
}

func TestStat_NotFoundMessage(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fi404)", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":"NotFound","message":{"lang":"en-US","value":"Item not found"},"reason":"NotFound"}`)
	})

	_, err := runCLI(t, "--config", f.configPath(""), "stat", "fi404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Item not found")
}

func TestMkdir(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("POST /sf/v3/Items(fo1)/Folder", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"Name":"Reports","Description":"Q1"}`, string(data))
		fmt.Fprint(w, `{"Id":"fo7","Name":"Reports","Description":"Q1"}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "mkdir", "fo1", "Reports", "--description", "Q1")
	require.NoError(t, err)
	assert.Contains(t, out, "Created folder Reports (fo7)")
}

func TestMkdir_Rejected(t *testing.T) {
	saveGlobals(t)

	calls := 0

	f := newFakeShareFile(t)
	f.handle("POST /sf/v3/Items(fo1)/Folder", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"BadRequest","message":{"lang":"en-US","value":"Name invalid"},"reason":"BadRequest"}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "mkdir", "fo1", "bad:name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name invalid")
	assert.Empty(t, out)
	assert.Equal(t, 1, calls)
}

func TestUpdate(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("PATCH /sf/v3/Items(fi1)", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"Description":"final"}`, string(data))
		fmt.Fprint(w, `{"Id":"fi1","Name":"a.txt","Description":"final"}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "update", "fi1", "--description", "final")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated a.txt (fi1)")
}

func TestUpdate_NothingToUpdate(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)

	_, err := runCLI(t, "--config", f.configPath(""), "update", "fi1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestRm(t *testing.T) {
	saveGlobals(t)

	deleted := false

	f := newFakeShareFile(t)
	f.handle("DELETE /sf/v3/Items(fi1)", func(w http.ResponseWriter, _ *http.Request) {
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := runCLI(t, "--config", f.configPath(""), "rm", "fi1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestGet_DefaultNameStaysInWorkingDir(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fi1)", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"Id":"fi1","Name":"hello.txt","FileName":"../../hello.txt","FileSizeBytes":5,"Hash":%q}`, helloMD5)
	})
	f.handle("GET /sf/v3/Items(fi1)/Download", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "hello")
	})

	cfg := f.configPath("")
	root := t.TempDir()
	work := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(work, 0o700))
	t.Chdir(work)

	_, err := runCLI(t, "--config", cfg, "get", "fi1")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(work, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = os.Stat(filepath.Join(root, "hello.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		name    string
		item    sharefile.Item
		want    string
		wantErr bool
	}{
		{"file name", sharefile.Item{Name: "Display", FileName: "report.pdf"}, "report.pdf", false},
		{"falls back to name", sharefile.Item{Name: "notes.txt"}, "notes.txt", false},
		{"separators stripped", sharefile.Item{FileName: "../etc/passwd"}, "passwd", false},
		{"dot dot", sharefile.Item{FileName: ".."}, "", true},
		{"empty", sharefile.Item{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := localName(&tt.item)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_FollowsRedirect(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fi1)", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"Id":"fi1","Name":"hello.txt","FileName":"hello.txt","FileSizeBytes":5,"Hash":%q}`, helloMD5)
	})
	f.handle("GET /sf/v3/Items(fi1)/Download", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, f.srv.URL+"/storage/blob", http.StatusFound)
	})
	f.mux.HandleFunc("GET /storage/blob", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "hello")
	})

	target := filepath.Join(t.TempDir(), "out", "hello.txt")

	_, err := runCLI(t, "--config", f.configPath(""), "get", "fi1", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = os.Stat(target + ".partial")
	assert.True(t, os.IsNotExist(err))
}

func TestGet_HashMismatchLeavesNoFile(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fi1)", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"Id":"fi1","Name":"hello.txt","FileSizeBytes":5,"Hash":"00000000000000000000000000000000"}`)
	})
	f.handle("GET /sf/v3/Items(fi1)/Download", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "hello")
	})

	target := filepath.Join(t.TempDir(), "hello.txt")

	_, err := runCLI(t, "--config", f.configPath(""), "get", "fi1", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGet_Folder(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Items(fo1)", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"odata.type":"ShareFile.Api.Models.Folder","Id":"fo1","Name":"Docs"}`)
	})

	_, err := runCLI(t, "--config", f.configPath(""), "get", "fo1", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a folder")
}

// handleThreadedUpload registers the upload specification, chunk and finish
// endpoints for folder fo1.
func (f *fakeShareFile) handleThreadedUpload(specQuery *string) {
	f.handle("GET /sf/v3/Items(fo1)/Upload", func(w http.ResponseWriter, r *http.Request) {
		*specQuery = r.URL.RawQuery
		fmt.Fprintf(w, `{"Method":"Threaded","ChunkUri":"%s/chunk?uploadid=u1","FinishUri":"%s/finish?uploadid=u1"}`,
			f.srv.URL, f.srv.URL)
	})
	f.handle("POST /chunk", func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(r.URL.Query().Get("index"))
		assert.NoError(f.t, err)

		data, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.chunks[index] = data
		f.mu.Unlock()

		fmt.Fprint(w, "OK")
	})
	f.handle("GET /finish", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "json", r.URL.Query().Get("fmt"))
		fmt.Fprintf(w, `{"error":false,"value":[{"id":"fi9","filename":"up.txt","size":5,"md5":%q}]}`, helloMD5)
	})
}

func (f *fakeShareFile) reassemble() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]int, 0, len(f.chunks))
	for k := range f.chunks {
		keys = append(keys, k)
	}

	sort.Ints(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.Write(f.chunks[k])
	}

	return buf.String()
}

func TestPut_Threaded(t *testing.T) {
	saveGlobals(t)

	var specQuery string

	f := newFakeShareFile(t)
	f.handleThreadedUpload(&specQuery)

	src := filepath.Join(t.TempDir(), "up.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))

	out, err := runCLI(t, "--config", f.configPath(""), "--json", "put", src, "fo1",
		"--method", "threaded", "--threads", "2")
	require.NoError(t, err)

	var got uploadJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "fi9", got.ID)
	assert.Equal(t, helloMD5, got.MD5)
	assert.Equal(t, "threaded", got.Method)

	assert.Equal(t, "hello", f.reassemble())
	assert.Len(t, f.chunks, 2, "chunk size 0 splits the file into two halves")
	assert.Contains(t, specQuery, "method=threaded")
	assert.Contains(t, specQuery, "filehash="+helloMD5)
	assert.Contains(t, specQuery, "threadCount=2")
}

func TestPut_ConfigMethodAndChunkSize(t *testing.T) {
	saveGlobals(t)

	var specQuery string

	f := newFakeShareFile(t)
	f.handleThreadedUpload(&specQuery)

	src := filepath.Join(t.TempDir(), "up.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))

	cfgPath := f.configPath("\n[transfers]\nupload_method = \"threaded\"\nchunk_size = \"2B\"\n")

	_, err := runCLI(t, "--config", cfgPath, "put", src, "fo1")
	require.NoError(t, err)

	assert.Equal(t, "hello", f.reassemble())
	assert.Len(t, f.chunks, 3)
}

func TestPut_MissingFile(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)

	_, err := runCLI(t, "--config", f.configPath(""), "put", filepath.Join(t.TempDir(), "nope.txt"), "fo1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.txt")
}

func TestClients(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("GET /sf/v3/Accounts/GetClients", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value":[{"Id":"c1","Email":"a@example.com","FirstName":"Ada","LastName":"L","Company":"Acme"}]}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "clients")
	require.NoError(t, err)
	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "Ada L")
	assert.Contains(t, out, "Acme")
}

func TestClientCreate(t *testing.T) {
	saveGlobals(t)

	f := newFakeShareFile(t)
	f.handle("POST /sf/v3/Users", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"Email":"b@example.com","FirstName":"Bo","LastName":"","Company":"Acme","Password":"pw1",
			"Preferences":{"CanResetPassword":true,"CanViewMySettings":false}
		}`, string(data))

		fmt.Fprint(w, `{"Id":"c2","Email":"b@example.com","FirstName":"Bo","Company":"Acme"}`)
	})

	out, err := runCLI(t, "--config", f.configPath(""), "--json", "clients", "create", "b@example.com",
		"--first-name", "Bo", "--company", "Acme", "--password", "pw1", "--can-view-settings=false")
	require.NoError(t, err)

	var got clientJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "c2", got.ID)
	assert.Equal(t, "Bo", got.FirstName)
}
