package papers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"research-backend/internal/bootstrap"
	"research-backend/internal/shared/config"
)

// minimalPDF builds a one-page PDF with a correct xref table so the
// upload validator accepts it.
func minimalPDF(label string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	fmt.Fprintf(&buf, "%%%s\n", label)

	offsets := make([]int, 4)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")

	xrefPos := buf.Len()
	buf.WriteString("xref\n0 4\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	return buf.Bytes()
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func multipartPDF(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func addGuestHeader(req *http.Request, guestID string) {
	req.Header.Set("X-Guest-Id", guestID)
}

type paperPayload struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	PDFURL  string `json:"pdfUrl"`
	Shared  bool   `json:"shared"`
}

func uploadPaper(t *testing.T, router *gin.Engine, guestID, filename string, data []byte) (paperPayload, int) {
	t.Helper()
	body, contentType := multipartPDF(t, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers", body)
	req.Header.Set("Content-Type", contentType)
	addGuestHeader(req, guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var payload paperPayload
	if resp.Code == http.StatusCreated || resp.Code == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode upload response: %v", err)
		}
	}
	return payload, resp.Code
}

func TestPapersUploadListAndFetch(t *testing.T) {
	router := newTestRouter(t)
	pdfData := minimalPDF("fetch")

	created, code := uploadPaper(t, router, "g1", "attention.pdf", pdfData)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if created.PaperID == "" {
		t.Fatal("expected paperId in response")
	}

	// Same bytes again resolve to the existing paper.
	dup, code := uploadPaper(t, router, "g1", "attention.pdf", pdfData)
	if code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate upload, got %d", code)
	}
	if dup.PaperID != created.PaperID {
		t.Fatalf("expected duplicate to resolve to %s, got %s", created.PaperID, dup.PaperID)
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/papers", nil)
	addGuestHeader(reqList, "g1")
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	if respList.Code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", respList.Code)
	}
	var listed []paperPayload
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(listed))
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/papers/"+created.PaperID, nil)
	addGuestHeader(reqGet, "g1")
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusOK {
		t.Fatalf("expected 200 for get, got %d", respGet.Code)
	}
	var fetched paperPayload
	if err := json.NewDecoder(respGet.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.PDFURL == "" {
		t.Fatal("expected a download URL")
	}
}

func TestPapersUploadRejectsNonPDF(t *testing.T) {
	router := newTestRouter(t)

	_, code := uploadPaper(t, router, "g1", "notes.pdf", []byte("not a pdf at all"))
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestPapersSharingGatesAccess(t *testing.T) {
	router := newTestRouter(t)

	created, code := uploadPaper(t, router, "owner", "paper.pdf", minimalPDF("share"))
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/papers/"+created.PaperID, nil)
	addGuestHeader(reqGet, "stranger")
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", respGet.Code)
	}

	shareBody := bytes.NewBufferString(`{"shared": true}`)
	reqPut := httptest.NewRequest(http.MethodPut, "/api/v1/papers/"+created.PaperID, shareBody)
	reqPut.Header.Set("Content-Type", "application/json")
	addGuestHeader(reqPut, "owner")
	respPut := httptest.NewRecorder()
	router.ServeHTTP(respPut, reqPut)
	if respPut.Code != http.StatusOK {
		t.Fatalf("expected 200 for share, got %d", respPut.Code)
	}

	reqGet2 := httptest.NewRequest(http.MethodGet, "/api/v1/papers/"+created.PaperID, nil)
	addGuestHeader(reqGet2, "stranger")
	respGet2 := httptest.NewRecorder()
	router.ServeHTTP(respGet2, reqGet2)
	if respGet2.Code != http.StatusOK {
		t.Fatalf("expected 200 for shared paper, got %d", respGet2.Code)
	}
}

func TestPapersDelete(t *testing.T) {
	router := newTestRouter(t)

	created, code := uploadPaper(t, router, "owner", "paper.pdf", minimalPDF("delete"))
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/v1/papers/"+created.PaperID, nil)
	addGuestHeader(reqDel, "stranger")
	respDel := httptest.NewRecorder()
	router.ServeHTTP(respDel, reqDel)
	if respDel.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger delete, got %d", respDel.Code)
	}

	reqDel2 := httptest.NewRequest(http.MethodDelete, "/api/v1/papers/"+created.PaperID, nil)
	addGuestHeader(reqDel2, "owner")
	respDel2 := httptest.NewRecorder()
	router.ServeHTTP(respDel2, reqDel2)
	if respDel2.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner delete, got %d", respDel2.Code)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/papers/"+created.PaperID, nil)
	addGuestHeader(reqGet, "owner")
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", respGet.Code)
	}
}
