package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Placement API",
        "description": "Eligibility and application workflow engine for campus placement drives",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Applications",
            "description": "Student applications and placement status"
        },
        {
            "name": "Jobs",
            "description": "Job postings and eligibility sweeps"
        },
        {
            "name": "Placement",
            "description": "Drive workflow and exports"
        },
        {
            "name": "Reconcile",
            "description": "Application copy consistency"
        }
    ],
    "paths": {
        "/students/{studentId}/jobs/{jobId}/apply": {
            "put": {
                "tags": [
                    "Applications"
                ],
                "summary": "Apply to a job",
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Ladder or criteria refusal",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Drive finished",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students/{studentId}/jobs/{jobId}/applied": {
            "get": {
                "tags": [
                    "Applications"
                ],
                "summary": "Check whether a student applied",
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students/{studentId}/placement-status": {
            "get": {
                "tags": [
                    "Applications"
                ],
                "summary": "Student placement status",
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/students/{studentId}/jobs/{jobId}/status": {
            "post": {
                "tags": [
                    "Applications"
                ],
                "summary": "Update application status",
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateStatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/jobs": {
            "post": {
                "tags": [
                    "Jobs"
                ],
                "summary": "Create job posting",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/JobRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/jobs/{jobId}": {
            "get": {
                "tags": [
                    "Jobs"
                ],
                "summary": "Get job posting",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Jobs"
                ],
                "summary": "Update job posting",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/JobRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Jobs"
                ],
                "summary": "Delete job posting and its applications",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/jobs/{jobId}/notify-eligible": {
            "post": {
                "tags": [
                    "Jobs"
                ],
                "summary": "Run the eligibility sweep",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/export/{jobId}": {
            "get": {
                "tags": [
                    "Placement"
                ],
                "summary": "Export applicants of a drive",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/exports/{token}": {
            "get": {
                "tags": [
                    "Placement"
                ],
                "summary": "Download an export",
                "parameters": [
                    {
                        "name": "token",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "403": {
                        "description": "Invalid or expired link",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/placement/shortlist/{jobId}": {
            "post": {
                "tags": [
                    "Placement"
                ],
                "summary": "Apply a company shortlist",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ShortlistRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/interview-round/{jobId}/{studentId}": {
            "post": {
                "tags": [
                    "Placement"
                ],
                "summary": "Record an interview round",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/InterviewRoundRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/mark-placed/{jobId}": {
            "post": {
                "tags": [
                    "Placement"
                ],
                "summary": "Mark selected students as placed",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MarkPlacedRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/finish-drive/{jobId}": {
            "post": {
                "tags": [
                    "Placement"
                ],
                "summary": "Finish a placement drive",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Already finished",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/status/{jobId}": {
            "get": {
                "tags": [
                    "Placement"
                ],
                "summary": "Drive workflow status",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/recent": {
            "get": {
                "tags": [
                    "Placement"
                ],
                "summary": "Drives finished in the last day",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/reconcile": {
            "post": {
                "tags": [
                    "Reconcile"
                ],
                "summary": "Scan for drift between application copies",
                "parameters": [
                    {
                        "name": "repair",
                        "in": "query",
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/repair/{jobId}/{studentId}": {
            "post": {
                "tags": [
                    "Reconcile"
                ],
                "summary": "Repair one application pair",
                "parameters": [
                    {
                        "name": "jobId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/placement/students/{studentId}/applications": {
            "delete": {
                "tags": [
                    "Applications"
                ],
                "summary": "Remove every application of a deleted student",
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "UpdateStatusRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "applied",
                        "shortlisted",
                        "in-process",
                        "placed",
                        "rejected"
                    ]
                },
                "currentRound": {
                    "type": "string"
                },
                "package": {
                    "type": "number"
                },
                "joiningDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "offerLetter": {
                    "type": "string"
                },
                "remarks": {
                    "type": "string"
                }
            }
        },
        "EligibilityCriteria": {
            "type": "object",
            "properties": {
                "sslcPercentage": {
                    "type": "number"
                },
                "pucPercentage": {
                    "type": "number"
                },
                "degreeCgpa": {
                    "type": "number"
                }
            }
        },
        "JobRequest": {
            "type": "object",
            "required": [
                "title",
                "companyName",
                "jobCategory"
            ],
            "properties": {
                "title": {
                    "type": "string"
                },
                "companyName": {
                    "type": "string"
                },
                "salary": {
                    "type": "number"
                },
                "jobCategory": {
                    "type": "string",
                    "enum": [
                        "mass",
                        "core",
                        "dream",
                        "open_dream"
                    ]
                },
                "isInternship": {
                    "type": "boolean"
                },
                "hasConversionOption": {
                    "type": "boolean"
                },
                "eligibilityCriteria": {
                    "$ref": "#/definitions/EligibilityCriteria"
                },
                "eligibleBranches": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "applicationDeadline": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "ShortlistRequest": {
            "type": "object",
            "properties": {
                "shortlistedStudents": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "rejectedStudents": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "InterviewRoundRequest": {
            "type": "object",
            "required": [
                "roundName"
            ],
            "properties": {
                "roundName": {
                    "type": "string"
                },
                "roundDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "scheduled",
                        "cleared",
                        "failed",
                        "pending"
                    ]
                },
                "remarks": {
                    "type": "string"
                }
            }
        },
        "PlacementEntry": {
            "type": "object",
            "required": [
                "studentId"
            ],
            "properties": {
                "studentId": {
                    "type": "string"
                },
                "package": {
                    "type": "number"
                },
                "joiningDate": {
                    "type": "string",
                    "format": "date-time"
                },
                "offerLetter": {
                    "type": "string"
                }
            }
        },
        "MarkPlacedRequest": {
            "type": "object",
            "required": [
                "placements"
            ],
            "properties": {
                "placements": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/PlacementEntry"
                    }
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
