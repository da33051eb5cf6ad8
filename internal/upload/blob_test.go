package upload

import (
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/stretchr/testify/assert"
)

func TestIsContainerAlreadyExists_MatchesResponseErrorCode(t *testing.T) {
	err := &azcore.ResponseError{ErrorCode: string(container.ErrorCodeContainerAlreadyExists)}
	assert.True(t, isContainerAlreadyExists(err))
}

func TestIsContainerAlreadyExists_OtherErrorCodeIsFalse(t *testing.T) {
	err := &azcore.ResponseError{ErrorCode: "SomeOtherError"}
	assert.False(t, isContainerAlreadyExists(err))
}

func TestIsContainerAlreadyExists_NonResponseErrorIsFalse(t *testing.T) {
	assert.False(t, isContainerAlreadyExists(errors.New("connection refused")))
}
