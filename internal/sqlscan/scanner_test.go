package sqlscan

import "testing"

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	src := `SELECT id, "full name" FROM users WHERE id = $1;`
	tokens, err := Scan("q.sql", []byte(src), false)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	want := []struct {
		kind Kind
		text string
	}{
		{KindKeyword, "SELECT"},
		{KindIdentifier, "id"},
		{KindSymbol, ","},
		{KindIdentifier, `"full name"`},
		{KindKeyword, "FROM"},
		{KindIdentifier, "users"},
		{KindKeyword, "WHERE"},
		{KindIdentifier, "id"},
		{KindSymbol, "="},
		{KindParam, "$1"},
		{KindSymbol, ";"},
		{KindEOF, ""},
	}

	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(tokens), tokens)
	}
	for i, w := range want {
		if tokens[i].Kind != w.kind {
			t.Errorf("token %d: kind = %v, want %v", i, tokens[i].Kind, w.kind)
		}
		if tokens[i].Text != w.text {
			t.Errorf("token %d: text = %q, want %q", i, tokens[i].Text, w.text)
		}
	}
}

func TestScanLineCommentEmitsCommentToken(t *testing.T) {
	src := "SELECT 1; -- sqlsift:disable E0002\nSELECT 2;"
	tokens, err := Scan("q.sql", []byte(src), false)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var comments []Token
	for _, tok := range tokens {
		if tok.Kind == KindComment {
			comments = append(comments, tok)
		}
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment token, got %d", len(comments))
	}
	if comments[0].Text != "sqlsift:disable E0002" {
		t.Fatalf("unexpected comment text: %q", comments[0].Text)
	}
}

func TestScanBlockCommentEmitsCommentToken(t *testing.T) {
	src := "/* leading note */ CREATE TABLE t (id INTEGER);"
	tokens, err := Scan("q.sql", []byte(src), false)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if tokens[0].Kind != KindComment || tokens[0].Text != "leading note" {
		t.Fatalf("expected leading comment token, got %+v", tokens[0])
	}
}

func TestScanCaptureDocsAssociatesWithCreate(t *testing.T) {
	src := "-- Users table.\n-- Has one row per account.\nCREATE TABLE users (id INTEGER);"
	tokens, err := Scan("q.sql", []byte(src), true)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var docs []Token
	for _, tok := range tokens {
		if tok.Kind == KindDocComment {
			docs = append(docs, tok)
		}
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc comment, got %d: %+v", len(docs), docs)
	}
	want := "Users table.\nHas one row per account."
	if docs[0].Text != want {
		t.Fatalf("doc comment = %q, want %q", docs[0].Text, want)
	}
}

func TestScanStringAndBlobLiterals(t *testing.T) {
	src := `INSERT INTO t VALUES ('it''s here', X'DEADBEEF');`
	tokens, err := Scan("q.sql", []byte(src), false)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var strTok, blobTok *Token
	for i := range tokens {
		switch tokens[i].Kind {
		case KindString:
			strTok = &tokens[i]
		case KindBlob:
			blobTok = &tokens[i]
		}
	}
	if strTok == nil || strTok.Text != "it's here" {
		t.Fatalf("unexpected string token: %+v", strTok)
	}
	if blobTok == nil || blobTok.Text != "X'DEADBEEF'" {
		t.Fatalf("unexpected blob token: %+v", blobTok)
	}
}

func TestScanUnterminatedBlockCommentErrors(t *testing.T) {
	_, err := Scan("q.sql", []byte("/* never closes"), false)
	if err == nil {
		t.Fatal("expected error for unterminated block comment")
	}
}

func TestIsKeywordExpandedSet(t *testing.T) {
	for _, kw := range []string{"SELECT", "WHERE", "GROUP", "WITH", "RECURSIVE", "LATERAL", "CASE", "WHEN", "CAST", "ENUM", "UUID", "JSONB", "TIMESTAMPTZ"} {
		if !IsKeyword(kw) {
			t.Errorf("expected %q to be a keyword", kw)
		}
	}
	if IsKeyword("NOT_A_KEYWORD") {
		t.Error("did not expect NOT_A_KEYWORD to be a keyword")
	}
}

func TestScanSeqMatchesScan(t *testing.T) {
	src := "SELECT id FROM users; -- trailing\n"
	want, err := Scan("q.sql", []byte(src), false)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var got []Token
	for tok := range ScanSeq("q.sql", []byte(src), false) {
		got = append(got, tok)
		if tok.Kind == KindEOF {
			break
		}
	}

	if len(got) != len(want) {
		t.Fatalf("ScanSeq produced %d tokens, Scan produced %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || got[i].Text != want[i].Text {
			t.Errorf("token %d mismatch: ScanSeq=%+v Scan=%+v", i, got[i], want[i])
		}
	}
}
