package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	msgInvalidType     = "Tipe tidak valid"
	msgInvalidLabel    = "Label tidak valid"
	msgInvalidAmount   = "Jumlah (Amount) harus lebih dari 0"
	msgInvalidBody     = "Format data tidak valid"
	msgInvalidDate     = "Format tanggal tidak valid"
	msgUnauthenticated = "User tidak terautentikasi"
	msgNotFound        = "Data cash flow tidak ditemukan"
	msgServerError     = "Terjadi kesalahan pada server"
	msgCreated         = "Data cash flow berhasil dibuat"
	msgListed          = "Daftar cash flow berhasil diambil"
	msgFetched         = "Data cash flow berhasil diambil"
	msgUpdated         = "Data cash flow berhasil diperbarui"
	msgDeleted         = "Data cash flow berhasil dihapus"
	msgSummary         = "Ringkasan cash flow berhasil diambil"
	msgFileMissing     = "File struk tidak ditemukan"
	msgFileTooLarge    = "Ukuran file terlalu besar"
	msgNoAmount        = "Nominal tidak ditemukan pada struk"
	msgScanned         = "Struk berhasil dibaca"
)

// Success writes a 200 envelope.
func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Status: StatusSuccess, Message: message, Data: data})
}

// Fail writes a failure envelope with a null data field.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Status: StatusFail, Message: message})
}

// serverError logs the cause and hides it from the caller.
func serverError(c *gin.Context, op string, err error) {
	log.Printf("cash flow %s failed: %v", op, err)
	Fail(c, http.StatusInternalServerError, msgServerError)
}
