package gateway

import "consultation-booking/internal/common/validation"

var eventTypesSchema = validation.MustCompile(OpGetEventTypes, `{
  "type": "object",
  "required": ["eventTypes"],
  "properties": {
    "eventTypes": {
      "type": "object",
      "required": ["data"],
      "properties": {
        "data": {
          "type": "object",
          "required": ["eventTypeGroups"],
          "properties": {
            "eventTypeGroups": {
              "type": "array",
              "items": {
                "type": "object",
                "properties": {
                  "eventTypes": {
                    "type": "array",
                    "items": {
                      "type": "object",
                      "required": ["id", "slug"],
                      "properties": {
                        "id": {"type": "integer"},
                        "slug": {"type": "string"},
                        "length": {"type": "integer"},
                        "title": {"type": "string"}
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`)

var slotsSchema = validation.MustCompile(OpGetAvailableTimes, `{
  "type": "object",
  "required": ["slots"],
  "properties": {
    "slots": {
      "type": "object",
      "required": ["data"],
      "properties": {
        "data": {
          "type": "object",
          "additionalProperties": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["start"],
              "properties": {
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
              }
            }
          }
        }
      }
    }
  }
}`)

var bookingSchema = validation.MustCompile(OpCreateBooking, `{"type": "object"}`)
