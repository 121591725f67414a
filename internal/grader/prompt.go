package grader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/remaimber-it/quizgrader/internal/domain/rubric"
)

// Keys of the JSON object the model is asked to produce.
const (
	questionKeyPrefix = "문제"
	totalKey          = "총점"
	scoreKey          = "score"
	similarityKey     = "유사도"
	descriptionKey    = "설명"
)

const itemSeparator = "---------------------"

func questionKey(index int) string {
	return questionKeyPrefix + strconv.Itoa(index+1)
}

// BuildPrompt renders one prompt for the whole batch: every question with
// its model answer and the student's answer, then the rubric highest
// threshold first, then the exact JSON shape expected back.
func BuildPrompt(items []Item, rub *rubric.Rubric) string {
	var b strings.Builder

	b.WriteString("아래는 각 문제와 모범답안, 학생의 답안입니다:\n\n")
	for i, it := range items {
		fmt.Fprintf(&b, "문제 %d:\n", i+1)
		b.WriteString("문제:\n" + it.Question.Text + "\n")
		b.WriteString("모범답안:\n" + it.Question.ModelAnswer + "\n")
		b.WriteString("학생의 답안:\n" + it.StudentAnswer + "\n")
		b.WriteString(itemSeparator + "\n")
	}

	b.WriteString("\n채점 기준은 다음과 같습니다:\n")
	for _, rule := range rub.Rules() {
		fmt.Fprintf(&b, "최소비율 %s%%: %s (점수: %d)\n",
			strconv.FormatFloat(rule.MinRatio, 'f', -1, 64), rule.Description, rule.Score)
	}
	fmt.Fprintf(&b, "어느 기준에도 해당하지 않으면 %d점을 부여하십시오.\n", rubric.DefaultScore)

	b.WriteString("\n위 정보를 바탕으로, 각 문제 별 학생 답안과 모범답안의 유사도를 0부터 100 사이의 백분율로 산출하고, ")
	b.WriteString("해당 기준에 따라 점수를 부여하십시오. 최종 결과는 다른 설명 없이 아래 JSON 형식으로만 출력해 주세요:\n")
	b.WriteString(expectedShape(len(items)))

	return b.String()
}

func expectedShape(n int) string {
	var b strings.Builder
	b.WriteString("{ ")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `"%s": {"%s": 0, "%s": 0.0, "%s": ""}, `,
			questionKey(i), scoreKey, similarityKey, descriptionKey)
	}
	fmt.Fprintf(&b, `"%s": 0 }`, totalKey)
	return b.String()
}
