// Package docs registers the pipeline's OpenAPI/Swagger description with
// github.com/swaggo/swag, so it can be served by http-swagger alongside the
// worker's HTTP surface. Hand-authored rather than generated by `swag init`
// (no network/toolchain access at build time here), but follows the same
// SwaggerInfo/init-registration shape swag itself emits.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/trigger": {
            "post": {
                "summary": "Trigger a pipeline run",
                "description": "Runs one full collect-extract-match-score-enrich-persist pass",
                "tags": ["pipeline"],
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "pipeline run summary"},
                    "401": {"description": "missing or invalid bearer token"},
                    "500": {"description": "pipeline run failed"}
                }
            }
        },
        "/healthz": {
            "get": {
                "summary": "Liveness/readiness probe",
                "tags": ["ops"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "healthy"},
                    "503": {"description": "database unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "tags": ["ops"],
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Prometheus exposition format"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "trendpulse pipeline API",
	Description:      "Trigger endpoint and operational surface for the trending AI keyword snapshot pipeline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
