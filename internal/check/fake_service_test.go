package check

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// cityPayload mirrors the wire format of a successful city lookup.
type cityPayload struct {
	CountryISO string `json:"countryISO"`
	ID         int64  `json:"id"`
	IsFeatured bool   `json:"isFeatured"`
	Name       string `json:"name"`
	RegionName string `json:"regionName"`
}

type cityKey struct {
	id   int64
	lang string
}

var fakeCities = map[cityKey]cityPayload{
	{101748111, "cs"}:  {CountryISO: "CZ", ID: 101748111, Name: "Plzeň", RegionName: "Plzeňský kraj"},
	{101748109, "de"}:  {CountryISO: "CZ", ID: 101748109, Name: "Brünn", RegionName: "Südmährische Region"},
	{1108839329, "cs"}: {CountryISO: "AT", ID: 1108839329, Name: "Štýrský Hradec", RegionName: "Štýrsko"},
}

// newFakeCityService builds a gin engine emulating the city service contract.
// logRequest, when non-nil, is invoked with each request path, emulating the
// real service's per-request logging.
func newFakeCityService(logRequest func(path string)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if logRequest != nil {
		r.Use(func(c *gin.Context) {
			logRequest(c.Request.URL.Path)
			c.Next()
		})
	}
	r.GET("/city/v1/get", func(c *gin.Context) {
		idStr, hasID := c.GetQuery("id")
		lang, hasLang := c.GetQuery("language")
		if !hasID || !hasLang {
			replyJSON(c, http.StatusBadRequest, gin.H{"message": "id and language are required"})
			return
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			replyJSON(c, http.StatusBadRequest, gin.H{"message": "id must be an integer"})
			return
		}
		city, ok := fakeCities[cityKey{id, lang}]
		if !ok {
			replyJSON(c, http.StatusNotFound, gin.H{"message": "no such city"})
			return
		}
		replyJSON(c, http.StatusOK, city)
	})
	return r
}

// replyJSON writes the payload with a bare application/json content type.
// gin's c.JSON appends a charset parameter, which the contract does not allow.
func replyJSON(c *gin.Context, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json", data)
}
