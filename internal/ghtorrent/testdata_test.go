package ghtorrent

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const (
	fixtureProjects = `id,url,owner_id,name,description,language,created_at,forked_from,deleted,updated_at,forked_commit_id
1,"https://api.github.com/repos/a/one",10,"one","first \"desc\"",C++,"2012-01-01 00:00:00",\N,0,"2013-01-01 00:00:00",\N
2,"https://api.github.com/repos/b/two",11,"two","multi
line desc",Go,"2012-01-02 00:00:00",\N,0,"2013-01-02 00:00:00",\N
3,"https://api.github.com/repos/c/three",12,"three","fork",C++,"2012-01-03 00:00:00",1,0,"2013-01-03 00:00:00",\N
4,"https://api.github.com/repos/d/four",13,"four","deleted",C++,"2012-01-04 00:00:00",\N,1,"2013-01-04 00:00:00",\N
5,"https://api.github.com/repos/e/five",14,"five","",c++,"2012-01-05 00:00:00",\N,0,"2013-01-05 00:00:00",\N
x,"bad",1,"bad","",C++,"",\N,0,"",\N
`
	fixtureProjectCommits = "1,100\n1,101\n1,101\n2,200\n5,500\n3,300\n"

	fixtureCommits = `100,aaa,1000,1001,1,"2012-01-01 00:00:00"
101,bbb,1000,\N,1,"2012-01-02 00:00:00"
200,ccc,2000,2000,2,"2012-01-03 00:00:00"
500,ddd,5000,5000,5,"2012-01-04 00:00:00"
`
	fixtureCommitParents = "100,99\n101,100\n200,199\n500,450\n"

	fixtureWatchers = `1,3000,"2014-01-01 00:00:00"
2,3001,"2014-01-01 00:00:00"
5,3002,"2014-01-02 00:00:00"
`
	fixtureUsers = `id,login,company,created_at,type,fake,deleted,long,lat,country_code,state,city,location
1000,"alice","ACME","2010-01-01 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
1001,"bob",\N,"2010-01-02 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
2000,"carol",\N,"2010-01-03 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
3000,"o'neil",\N,"2010-01-04 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
3001,"eve",\N,"2010-01-05 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
5000,"dave",\N,"2010-01-06 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
3002,"frank",\N,"2010-01-07 00:00:00",USR,0,0,\N,\N,\N,\N,\N,\N
`
)

// writeFixture lays out a small dump in a temp dir. users.csv is stored
// gzip-compressed.
func writeFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		ProjectsFile:       fixtureProjects,
		ProjectCommitsFile: fixtureProjectCommits,
		CommitsFile:        fixtureCommits,
		CommitParentsFile:  fixtureCommitParents,
		WatchersFile:       fixtureWatchers,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(fixtureUsers)); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, UsersFile+".gz"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write users: %v", err)
	}
	return dir
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}
